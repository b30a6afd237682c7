package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"overlaysnow/core"
	"overlaysnow/handlers/auth"
)

func initSecret(t *testing.T) {
	t.Helper()
	os.Setenv("JWT_SECRET", "middleware-test-secret")
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })
	auth.InitAuth()
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthJWTRejectsMissingHeader(t *testing.T) {
	initSecret(t)
	next, called := okHandler()
	rec := httptest.NewRecorder()

	AuthJWT(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Error("handler must not run without a token")
	}
}

func TestAuthJWTRejectsMalformedHeader(t *testing.T) {
	initSecret(t)
	next, called := okHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")

	AuthJWT(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized || *called {
		t.Errorf("expected 401 for non-bearer scheme, got %d", rec.Code)
	}
}

func TestAuthJWTPassesClaimsThrough(t *testing.T) {
	initSecret(t)
	token, err := auth.CreateJWT(&core.User{ID: "user_1", Name: "Alex"})
	if err != nil {
		t.Fatalf("CreateJWT: %v", err)
	}

	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			t.Error("expected claims on the context")
			return
		}
		gotSubject = claims.Subject
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	AuthJWT(next).ServeHTTP(rec, req)

	if gotSubject != "user_1" {
		t.Errorf("expected subject user_1, got %q", gotSubject)
	}
}

func TestRequireAdmin(t *testing.T) {
	initSecret(t)
	next, called := okHandler()

	adminToken, err := auth.CreateJWT(&core.User{ID: "admin", IsAdmin: true})
	if err != nil {
		t.Fatalf("CreateJWT: %v", err)
	}
	userToken, err := auth.CreateJWT(&core.User{ID: "user_1"})
	if err != nil {
		t.Fatalf("CreateJWT: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	AuthJWT(RequireAdmin(next)).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", rec.Code)
	}
	if *called {
		t.Error("handler must not run for non-admins")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	AuthJWT(RequireAdmin(next)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !*called {
		t.Errorf("expected admin request to pass, got %d", rec.Code)
	}
}
