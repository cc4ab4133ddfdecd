package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/quizmaster/core/user"
)

const pqUniqueViolation = "23505"

type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	DOB          null.Time `db:"dob"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastSeen     null.Time `db:"last_seen"`
}

func (row userRow) user() user.User {
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		Role:         row.Role,
		DOB:          row.DOB,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastSeen:     row.LastSeen.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapUserErr maps driver errors to the business errors callers match on.
func trapUserErr(err error) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		switch pqErr.Constraint {
		case "user_username_key":
			return user.ErrUsernameExists
		case "user_email_key":
			return user.ErrEmailExists
		}
	}
	return err
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers []user.User) error {
	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	q := `SELECT username, email FROM "user" WHERE (username = $1 OR email = $2) AND id != ALL($3)`
	rows, err := repo.db.QueryxContext(ctx, q, username, email, pq.Array(excludedIDs))
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var uname, mail string
		if err = rows.Scan(&uname, &mail); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if username != "" && uname == username {
			return user.ErrUsernameExists
		}
		if mail == email {
			return user.ErrEmailExists
		}
	}
	return errors.Wrap(rows.Err(), "checking user uniqueness")
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	q := `
INSERT INTO "user" (id, username, email, role, dob, password_hash, created_at, updated_at, last_seen)
VALUES (:id, :username, :email, :role, :dob, :password_hash, :created_at, :updated_at, :last_seen)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, newUserRow(usr)); err != nil {
		return user.User{}, trapUserErr(err)
	}
	return usr, nil
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		DOB:          usr.DOB,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastSeen:     null.NewTime(usr.LastSeen, !usr.LastSeen.IsZero()),
	}
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := `SELECT * FROM "user" WHERE `
	var arg1, arg2 interface{}
	switch {
	case filter.ID != "":
		q += "id = $1"
		arg1 = filter.ID
	case filter.Username != "":
		q += "username = $1"
		arg1 = filter.Username
	case filter.Email != "":
		q += "email = $1"
		arg1 = filter.Email
	case len(filter.UsernameOrEmail) == 2:
		q += "(username = $1 OR email = $2)"
		arg1, arg2 = filter.UsernameOrEmail[0], filter.UsernameOrEmail[1]
	default:
		return user.User{}, user.ErrNotFound
	}

	args := []interface{}{arg1}
	if arg2 != nil {
		args = append(args, arg2)
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return user.User{}, trapUserErr(err)
	}
	return row.user(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	q := `SELECT * FROM "user"`
	var args []interface{}
	if filter != nil {
		var conds []string
		if filter.Role != "" {
			args = append(args, filter.Role)
			conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
		}
		if !filter.LastSeenBefore.IsZero() {
			args = append(args, filter.LastSeenBefore)
			conds = append(conds, fmt.Sprintf("last_seen < $%d", len(args)))
		}
		if len(conds) > 0 {
			q += " WHERE " + strings.Join(conds, " AND ")
		}
	}
	q += " ORDER BY username"

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
UPDATE "user"
SET username = :username, email = :email, role = :role, dob = :dob,
    password_hash = :password_hash, updated_at = :updated_at, last_seen = :last_seen
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, newUserRow(usr))
	if err != nil {
		return user.User{}, trapUserErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	existing, err := repo.GetUser(ctx, user.GetFilter{Username: usr.Username})
	if err == user.ErrNotFound {
		return repo.CreateUser(ctx, usr)
	}
	if err != nil {
		return user.User{}, err
	}
	usr.ID = existing.ID
	usr.CreatedAt = existing.CreatedAt
	return repo.UpdateUser(ctx, usr)
}
