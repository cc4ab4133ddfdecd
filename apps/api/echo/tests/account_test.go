package tests

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"testing"

	. "github.com/trezcool/quizmaster/apps/api/echo"
	"github.com/trezcool/quizmaster/core/user"
	emailsvc "github.com/trezcool/quizmaster/services/email"
	testutil "github.com/trezcool/quizmaster/tests"
)

func Test_authApi_signup(t *testing.T) {
	db.Reset()
	testutil.CreateUser(t, usrRepo, "taken", "taken@qm.cd", "", user.RoleStudent)

	tests := []httpTest{
		{
			name:     "empty body",
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "username taken",
			body:     marchallObj(t, user.NewUser{Username: "taken", Email: "new@qm.cd", Password: "LeP@ssw0rd"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name:     "email taken",
			body:     marchallObj(t, user.NewUser{Username: "newguy", Email: "taken@qm.cd", Password: "LeP@ssw0rd"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name:     "weak password",
			body:     marchallObj(t, user.NewUser{Username: "newguy", Email: "new@qm.cd", Password: "password"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "ok",
			body:     marchallObj(t, user.NewUser{Username: "newguy", Email: "new@qm.cd", Password: "LeP@ssw0rd"}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/signup"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				return
			}
			var usr user.User
			if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
				t.Fatalf("unmarshalling response: %v", err)
			}
			if usr.ID == "" {
				t.Error("failed! created user has no ID")
			}
			if usr.Role != user.RoleStudent {
				t.Errorf("failed! Role = %q; want %q", usr.Role, user.RoleStudent)
			}
			if len(emailsvc.SentMessages) != 1 {
				t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
			}
			want := mail.Address{Name: "newguy", Address: "new@qm.cd"}
			if got := emailsvc.SentMessages[0].To[0]; got != want {
				t.Errorf("failed! To = %v; want %v", got, want)
			}
		})
	}
}

func Test_authApi_login(t *testing.T) {
	db.Reset()
	testutil.CreateUser(t, usrRepo, "hero", "hero@qm.cd", "LeP@ssw0rd", user.RoleStudent)

	tests := []httpTest{
		{
			name:     "empty body",
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, LoginRequest{Username: "nobody", Password: "LeP@ssw0rd"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Username: "hero", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "by username",
			body:     marchallObj(t, LoginRequest{Username: "hero", Password: "LeP@ssw0rd"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "by email",
			body:     marchallObj(t, LoginRequest{Username: "hero@qm.cd", Password: "LeP@ssw0rd"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusOK {
				return
			}
			var resp LoginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshalling response: %v", err)
			}
			if resp.Token == "" {
				t.Error("failed! empty token")
			}
			if resp.Role != user.RoleStudent {
				t.Errorf("failed! Role = %q; want %q", resp.Role, user.RoleStudent)
			}
		})
	}
}

func Test_authApi_logout(t *testing.T) {
	db.Reset()
	student := testutil.CreateUser(t, usrRepo, "hero", "hero@qm.cd", "LeP@ssw0rd", user.RoleStudent)

	tests := []httpTest{
		{
			name:     "auth required",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "ok",
			token:    getToken(t, student),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: "logged out"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/logout"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
