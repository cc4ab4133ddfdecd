package echoapi

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/quizmaster/core"
	"github.com/trezcool/quizmaster/core/user"
)

func TestGetUserClaims(t *testing.T) {
	usr := user.User{ID: "usr1", Username: "hero", Email: "hero@qm.cd", Role: user.RoleStudent}

	claims := GetUserClaims(usr)
	if claims.Subject != usr.ID {
		t.Errorf("Subject = %q, want %q", claims.Subject, usr.ID)
	}
	if claims.Username != usr.Username || claims.Email != usr.Email || claims.Role != usr.Role {
		t.Errorf("claims = %+v, want user attributes carried over", claims)
	}
	if claims.Issuer != core.Conf.AppName {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, core.Conf.AppName)
	}

	wantExp := time.Now().Add(core.Conf.Server.JWTExpirationDelta).Unix()
	if d := claims.ExpiresAt - wantExp; d < -5 || d > 5 {
		t.Errorf("ExpiresAt = %d, want ~%d", claims.ExpiresAt, wantExp)
	}
}

func TestGenerateToken_roundTrip(t *testing.T) {
	usr := user.User{ID: "usr1", Username: "hero", Email: "hero@qm.cd", Role: user.RoleAdmin}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	parsed := new(Claims)
	if _, err := jwt.ParseWithClaims(token, parsed, func(*jwt.Token) (interface{}, error) {
		return appJWTConfig.SigningKey, nil
	}); err != nil {
		t.Fatalf("ParseWithClaims() failed: %v", err)
	}
	if parsed.Subject != usr.ID || parsed.Role != user.RoleAdmin {
		t.Errorf("parsed claims = %+v, want Subject %q / Role %q", parsed, usr.ID, user.RoleAdmin)
	}
}

func TestGenerateToken_expiredTokenRejected(t *testing.T) {
	usr := user.User{ID: "usr1", Username: "hero", Email: "hero@qm.cd", Role: user.RoleStudent}

	claims := GetUserClaims(usr)
	claims.IssuedAt = time.Now().Add(-2 * core.Conf.Server.JWTExpirationDelta).Unix()
	claims.ExpiresAt = time.Now().Add(-time.Hour).Unix()

	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	if _, err := jwt.ParseWithClaims(token, new(Claims), func(*jwt.Token) (interface{}, error) {
		return appJWTConfig.SigningKey, nil
	}); err == nil {
		t.Error("ParseWithClaims() error = nil, want expiry error")
	}
}
