package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/quizmaster/core"
	"github.com/trezcool/quizmaster/core/user"
	emailsvc "github.com/trezcool/quizmaster/services/email"
	inmemdb "github.com/trezcool/quizmaster/storage/database/inmem"
)

func newTestService() (user.Repository, user.ServiceInterface) {
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return repo, user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock())
}

func Test_service_Signup(t *testing.T) {
	_, svc := newTestService()
	ctx := context.Background()

	usr, err := svc.Signup(ctx, user.NewUser{Username: "awesome", Email: "awesome@qm.cd", Password: "LeP@ssw0rd"})
	if err != nil {
		t.Fatalf("Signup() failed: %v", err)
	}
	if usr.ID == "" {
		t.Error("Signup() user has no ID")
	}
	if usr.Role != user.RoleStudent {
		t.Errorf("Role = %q, want %q", usr.Role, user.RoleStudent)
	}
	if err := usr.CheckPassword("LeP@ssw0rd"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func Test_service_CheckUniqueness(t *testing.T) {
	repo, svc := newTestService()
	ctx := context.Background()

	existing := user.User{Username: "awesome", Email: "awesome@qm.cd"}
	existing, err := repo.CreateUser(ctx, existing)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	tests := []struct {
		name      string
		uname     string
		email     string
		excl      []user.User
		wantField string // empty means no error
	}{
		{name: "available", uname: "other", email: "other@qm.cd"},
		{name: "username taken", uname: "awesome", email: "other@qm.cd", wantField: "username"},
		{name: "email taken", uname: "other", email: "awesome@qm.cd", wantField: "email"},
		{name: "self excluded", uname: "awesome", email: "awesome@qm.cd", excl: []user.User{existing}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CheckUniqueness(tt.uname, tt.email, tt.excl...)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("CheckUniqueness() error = %v, want nil", err)
				}
				return
			}
			vErr, ok := err.(*core.ValidationError)
			if !ok {
				t.Fatalf("CheckUniqueness() error = %v, want *core.ValidationError", err)
			}
			if len(vErr.Fields) != 1 || vErr.Fields[0].Field != tt.wantField {
				t.Errorf("CheckUniqueness() fields = %v, want field %q", vErr.Fields, tt.wantField)
			}
		})
	}
}

func Test_service_UpdateProfile(t *testing.T) {
	repo, svc := newTestService()
	ctx := context.Background()

	usr, err := repo.CreateUser(ctx, user.User{Username: "awesome", Email: "awesome@qm.cd", Role: user.RoleStudent})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	usr, err = svc.UpdateProfile(ctx, usr.ID, user.UpdateProfile{Email: "new@qm.cd"})
	if err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	if usr.Email != "new@qm.cd" {
		t.Errorf("Email = %q, want %q", usr.Email, "new@qm.cd")
	}

	if _, err = svc.UpdateProfile(ctx, "nope", user.UpdateProfile{Email: "x@qm.cd"}); err != user.ErrNotFound {
		t.Errorf("UpdateProfile() error = %v, want %v", err, user.ErrNotFound)
	}
}

func Test_service_QueryInactiveStudents(t *testing.T) {
	repo, svc := newTestService()
	ctx := context.Background()
	now := time.Now().UTC()

	mustCreate := func(uname, role string, lastSeen time.Time) {
		t.Helper()
		if _, err := repo.CreateUser(ctx, user.User{Username: uname, Email: uname + "@qm.cd", Role: role, LastSeen: lastSeen}); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	mustCreate("active", user.RoleStudent, now)
	mustCreate("dormant", user.RoleStudent, now.Add(-48*time.Hour))
	mustCreate("admin", user.RoleAdmin, now.Add(-48*time.Hour))

	students, err := svc.QueryInactiveStudents(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("QueryInactiveStudents() failed: %v", err)
	}
	if len(students) != 1 {
		t.Fatalf("QueryInactiveStudents() returned %d users, want 1", len(students))
	}
	if students[0].Username != "dormant" {
		t.Errorf("Username = %q, want %q", students[0].Username, "dormant")
	}
}
