package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"milk2meat/internal/auth"
	"milk2meat/internal/constants"
	"milk2meat/internal/database"
	"milk2meat/internal/environment"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/models"
	"milk2meat/internal/session"
	"milk2meat/internal/turnstile"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testKey = "test-signing-key"

type mockRepository struct {
	database.NullRepository
	users map[string]models.User
	err   error
}

func (m *mockRepository) FindUserLoginCredentials(_ context.Context, email string, user *models.User) error {
	if m.err != nil {
		return m.err
	}
	u, ok := m.users[email]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	*user = u
	return nil
}

type mockVerifier struct {
	ok  bool
	err error
	// token records the last verified token
	token string
}

func (m *mockVerifier) Verify(_ context.Context, token, _ string) (bool, error) {
	m.token = token
	return m.ok, m.err
}

type mockTokenStore struct {
	revoked map[string]time.Time
}

func (m *mockTokenStore) Revoke(_ context.Context, tokenId string, expiresAt time.Time) error {
	m.revoked[tokenId] = expiresAt
	return nil
}

func (m *mockTokenStore) IsRevoked(_ context.Context, tokenId string) (bool, error) {
	_, ok := m.revoked[tokenId]
	return ok, nil
}

func newMockRepository(t *testing.T) *mockRepository {
	hash, err := models.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	return &mockRepository{users: map[string]models.User{
		"reader@example.com": {Model: models.Model{ID: 7}, Email: "reader@example.com", Password: string(hash)},
	}}
}

func newMockController(repo database.Repository, verifier turnstile.Verifier, store *mockTokenStore) *auth.Controller {
	env := environment.Null()
	env.Repository = repo

	var tokenStore session.TokenStore
	if store != nil {
		tokenStore = store
	}

	return &auth.Controller{
		Env: env,
		AuthService: &auth.AuthService{
			Env:      env,
			Verifier: verifier,
			Tokens:   &middlewares.TokenIssuer{Key: []byte(testKey), Issuer: "milk2meat", TTL: time.Hour},
			Store:    tokenStore,
		},
	}
}

func postLogin(ctrl *auth.Controller, data map[string]any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]any{"data": data})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))

	ctrl.Login(c)
	return w
}

type loginResponse struct {
	Status string             `json:"status"`
	Data   auth.TokenResponse `json:"data"`
}

// ####################### valid behavior tests
func TestLogin_Success(t *testing.T) {
	verifier := &mockVerifier{ok: true}
	ctrl := newMockController(newMockRepository(t), verifier, nil)

	w := postLogin(ctrl, map[string]any{
		"email":                 " Reader@Example.com ",
		"password":              "s3cret-pass",
		"cf-turnstile-response": "token-1",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	if verifier.token != "token-1" {
		t.Errorf("got verified token %q, want token-1", verifier.token)
	}

	var got loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling error: %v", err)
	}

	claims, err := middlewares.ValidateClaims(got.Data.Token, testKey)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserId != 7 || claims.Email != "reader@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if len(claims.Id) == 0 {
		t.Error("token id must be set")
	}
}

func TestLogin_SkipVerifier(t *testing.T) {
	ctrl := newMockController(newMockRepository(t), turnstile.SkipVerifier{}, nil)

	w := postLogin(ctrl, map[string]any{"email": "reader@example.com", "password": "s3cret-pass"})

	if w.Code != http.StatusOK {
		t.Errorf("got status %d, want 200: %s", w.Code, w.Body.String())
	}
}

// ####################### error tests
func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		verifier *mockVerifier
		data     map[string]any
		want     int
	}{
		{
			name:     "turnstile rejected",
			verifier: &mockVerifier{ok: false},
			data:     map[string]any{"email": "reader@example.com", "password": "s3cret-pass"},
			want:     http.StatusBadRequest,
		},
		{
			name:     "turnstile secret missing",
			verifier: &mockVerifier{err: turnstile.ErrNotConfigured},
			data:     map[string]any{"email": "reader@example.com", "password": "s3cret-pass"},
			want:     http.StatusInternalServerError,
		},
		{
			name:     "turnstile unavailable",
			verifier: &mockVerifier{err: turnstile.ErrUnavailable},
			data:     map[string]any{"email": "reader@example.com", "password": "s3cret-pass"},
			want:     http.StatusServiceUnavailable,
		},
		{
			name:     "wrong password",
			verifier: &mockVerifier{ok: true},
			data:     map[string]any{"email": "reader@example.com", "password": "wrong"},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "unknown user",
			verifier: &mockVerifier{ok: true},
			data:     map[string]any{"email": "nobody@example.com", "password": "s3cret-pass"},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "invalid email",
			verifier: &mockVerifier{ok: true},
			data:     map[string]any{"email": "not-an-email", "password": "s3cret-pass"},
			want:     http.StatusUnprocessableEntity,
		},
		{
			name:     "database down",
			repoErr:  errors.New("DB unreachable"),
			verifier: &mockVerifier{ok: true},
			data:     map[string]any{"email": "reader@example.com", "password": "s3cret-pass"},
			want:     http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository(t)
			repo.err = tt.repoErr

			w := postLogin(newMockController(repo, tt.verifier, nil), tt.data)
			if w.Code != tt.want {
				t.Errorf("got status %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	ctrl := newMockController(newMockRepository(t), &mockVerifier{ok: true}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{invalid"))

	ctrl.Login(c)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("got status %d, want 422", w.Code)
	}
}

func authenticatedContext(t *testing.T, ctrl *auth.Controller, path string) (*gin.Context, *httptest.ResponseRecorder, *middlewares.Claims) {
	t.Helper()

	token, _, err := ctrl.Tokens.GenerateToken(7, "reader@example.com", middlewares.RolesFor(false))
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	claims, err := middlewares.ValidateClaims(token, testKey)
	if err != nil {
		t.Fatalf("ValidateClaims error: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, nil)
	c.Set(constants.ContextUserId, claims.UserId)
	c.Set(constants.ContextTokenClaims, claims)

	return c, w, claims
}

func TestLogout_RevokesToken(t *testing.T) {
	store := &mockTokenStore{revoked: map[string]time.Time{}}
	ctrl := newMockController(newMockRepository(t), &mockVerifier{ok: true}, store)

	c, w, claims := authenticatedContext(t, ctrl, "/auth/logout")
	ctrl.Logout(c)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	expiresAt, ok := store.revoked[claims.Id]
	if !ok {
		t.Fatal("token was not revoked")
	}
	if expiresAt.Unix() != claims.ExpiresAt {
		t.Errorf("revoked until %v, want the token expiry %d", expiresAt, claims.ExpiresAt)
	}
}

func TestRefreshToken_IssuesNewTokenAndRevokesOld(t *testing.T) {
	store := &mockTokenStore{revoked: map[string]time.Time{}}
	ctrl := newMockController(newMockRepository(t), &mockVerifier{ok: true}, store)

	c, w, claims := authenticatedContext(t, ctrl, "/auth/refresh")
	ctrl.RefreshToken(c)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	var got loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling error: %v", err)
	}

	newClaims, err := middlewares.ValidateClaims(got.Data.Token, testKey)
	if err != nil {
		t.Fatalf("refreshed token does not validate: %v", err)
	}
	if newClaims.Id == claims.Id {
		t.Error("refreshed token must carry a new token id")
	}
	if _, ok := store.revoked[claims.Id]; !ok {
		t.Error("old token was not revoked")
	}
}

func TestLogout_WithoutClaims(t *testing.T) {
	ctrl := newMockController(newMockRepository(t), &mockVerifier{ok: true}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

	ctrl.Logout(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401", w.Code)
	}
}
