package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shulehub/internal/entity"
	"shulehub/internal/repository"
	"shulehub/internal/service"
	"shulehub/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// stubStore overrides only the user lookup ResolvePrincipal needs;
// everything else inherits the nil embedded interface and would panic
// if touched.
type stubStore struct {
	repository.Store
	users stubUserRepo
}

func (s stubStore) Users() repository.UserRepository { return s.users }

type stubUserRepo struct {
	repository.UserRepository
	byID map[uuid.UUID]*entity.User
}

func (r stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.byID[id], nil
}

func newAuthTestMiddleware(users map[uuid.UUID]*entity.User) (AuthMiddleware, *utils.JWTManager) {
	manager := &utils.JWTManager{
		Secret:         []byte("unit-test-secret"),
		Issuer:         "shulehub-test",
		AccessTokenTTL: 15 * time.Minute,
	}
	store := stubStore{users: stubUserRepo{byID: users}}
	auth := service.NewAuthService(store, nil, nil, nil, nil, nil, nil, service.AuthConfig{})
	return AuthMiddleware{JWT: manager, Auth: auth}, manager
}

func invokeRequireAuth(t *testing.T, m AuthMiddleware, authorization string) (*httptest.ResponseRecorder, *service.Principal) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured *service.Principal
	handler := m.RequireAuth(func(c echo.Context) error {
		captured, _ = PrincipalFromContext(c)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, captured
}

func TestRequireAuthMissingToken(t *testing.T) {
	m, _ := newAuthTestMiddleware(nil)
	rec, _ := invokeRequireAuth(t, m, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	m, _ := newAuthTestMiddleware(nil)
	for _, header := range []string{"Token abc", "Bearer", "garbage"} {
		rec, _ := invokeRequireAuth(t, m, header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q status = %d, want 401", header, rec.Code)
		}
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	m, _ := newAuthTestMiddleware(nil)
	rec, _ := invokeRequireAuth(t, m, "Bearer not.a.jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthLoadsPrincipal(t *testing.T) {
	user := &entity.User{
		ID:     uuid.New(),
		Email:  "root@example.com",
		Role:   entity.RoleSuperAdmin,
		Status: entity.StatusActive,
	}
	m, manager := newAuthTestMiddleware(map[uuid.UUID]*entity.User{user.ID: user})

	token, _, err := manager.IssueAccessToken(user.ID.String(), user.Email, string(user.Role), "", uuid.NewString())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	rec, principal := invokeRequireAuth(t, m, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if principal == nil {
		t.Fatal("principal not set on context")
	}
	if principal.UserID != user.ID || principal.Role != entity.RoleSuperAdmin {
		t.Errorf("principal = %+v", principal)
	}
}

func TestRequireAuthLifecycleStatuses(t *testing.T) {
	cases := []struct {
		name   string
		status entity.Status
		want   int
	}{
		{"suspended", entity.StatusSuspended, http.StatusForbidden},
		{"pending", entity.StatusPending, http.StatusForbidden},
		// Deleted accounts look like a bad token, not a known user.
		{"deleted", entity.StatusDeleted, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := &entity.User{
				ID:     uuid.New(),
				Email:  tc.name + "@example.com",
				Role:   entity.RoleSuperAdmin,
				Status: tc.status,
			}
			m, manager := newAuthTestMiddleware(map[uuid.UUID]*entity.User{user.ID: user})
			token, _, err := manager.IssueAccessToken(user.ID.String(), user.Email, string(user.Role), "", uuid.NewString())
			if err != nil {
				t.Fatalf("IssueAccessToken: %v", err)
			}
			rec, _ := invokeRequireAuth(t, m, "Bearer "+token)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRequireAuthUnknownUser(t *testing.T) {
	m, manager := newAuthTestMiddleware(map[uuid.UUID]*entity.User{})
	token, _, err := manager.IssueAccessToken(uuid.NewString(), "ghost@example.com", "teacher", "", uuid.NewString())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	rec, _ := invokeRequireAuth(t, m, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
