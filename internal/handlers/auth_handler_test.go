package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yuenlok/eventpass/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := setupTestDB(t)
	router := newTestRouter(db, &fakeGateway{}, nil)

	w := doJSON(router, http.MethodPost, "/api/auth/register", h{
		"email":    "Admin.Candidate@Example.com",
		"username": "Candidate",
		"password": "hunter2x",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	var registered struct {
		User struct {
			Email    string `json:"email"`
			Role     string `json:"role"`
			Password string `json:"password"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &registered); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if registered.User.Email != "admin.candidate@example.com" {
		t.Errorf("email = %q, want lowercased", registered.User.Email)
	}
	if registered.User.Role != models.RoleUser {
		t.Errorf("role = %q, want user", registered.User.Role)
	}
	if registered.User.Password != "" {
		t.Error("password hash leaked in response")
	}
	if registered.Token == "" {
		t.Fatal("no token issued on registration")
	}

	// Duplicate email is a conflict.
	w = doJSON(router, http.MethodPost, "/api/auth/register", h{
		"email":    "admin.candidate@example.com",
		"username": "Candidate Again",
		"password": "hunter2x",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", w.Code)
	}

	w = doJSON(router, http.MethodPost, "/api/auth/login", h{
		"email":    "ADMIN.CANDIDATE@example.com",
		"password": "hunter2x",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	env = decodeEnvelope(t, w)
	var loggedIn struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &loggedIn); err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	w = doJSON(router, http.MethodPost, "/api/auth/login", h{
		"email":    "admin.candidate@example.com",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", w.Code)
	}

	// The issued token works against the authenticated profile route.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loggedIn.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d, body %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated profile status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token profile status = %d, want 401", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB(t)
	router := newTestRouter(db, &fakeGateway{}, nil)

	tests := []struct {
		name string
		body h
	}{
		{"invalid email", h{"email": "nope", "username": "U", "password": "hunter2x"}},
		{"short password", h{"email": "u@example.com", "username": "U", "password": "abc"}},
		{"unknown contact method", h{"email": "u@example.com", "username": "U", "password": "hunter2x", "contactMethod": "fax"}},
		{"whatsapp without full number", h{"email": "u@example.com", "username": "U", "password": "hunter2x", "contactMethod": "whatsapp", "contactInfo": "12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/auth/register", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body %s", w.Code, w.Body.String())
			}
		})
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("user count = %d after rejected registrations, want 0", count)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := setupTestDB(t)
	router := newTestRouter(db, &fakeGateway{}, nil)

	w := doJSON(router, http.MethodPost, "/api/auth/register", h{
		"email":    "dormant@example.com",
		"username": "Dormant",
		"password": "hunter2x",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}
	if err := db.Model(&models.User{}).
		Where("email = ?", "dormant@example.com").
		Update("status", models.UserStatusInactive).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	w = doJSON(router, http.MethodPost, "/api/auth/login", h{
		"email":    "dormant@example.com",
		"password": "hunter2x",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("inactive login status = %d, want 401", w.Code)
	}
}
