package middlewares_test

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"milk2meat/internal/middlewares"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testKey = "test-signing-key"

type fakeTokenStore struct {
	revoked map[string]bool
	err     error
}

func (f *fakeTokenStore) Revoke(ctx context.Context, tokenId string, expiresAt time.Time) error {
	f.revoked[tokenId] = true
	return nil
}

func (f *fakeTokenStore) IsRevoked(ctx context.Context, tokenId string) (bool, error) {
	return f.revoked[tokenId], f.err
}

func newIssuer() *middlewares.TokenIssuer {
	return &middlewares.TokenIssuer{Key: []byte(testKey), Issuer: "milk2meat", TTL: time.Hour}
}

func newRouter(store *fakeTokenStore, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", middlewares.AuthHandler(testKey, store, roles...), func(c *gin.Context) {
		userId, ok := middlewares.CurrentUserId(c)
		if !ok {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		claims, _ := middlewares.CurrentClaims(c)
		c.JSON(http.StatusOK, gin.H{"userId": userId, "email": claims.Email})
	})
	return r
}

func doRequest(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if len(authorization) > 0 {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_ValidToken(t *testing.T) {
	token, _, err := newIssuer().GenerateToken(7, "reader@example.com", middlewares.RolesFor(false))
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	w := doRequest(newRouter(&fakeTokenStore{revoked: map[string]bool{}}), "Bearer "+token)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	want := `{"email":"reader@example.com","userId":7}`
	if got := w.Body.String(); got != want {
		t.Error(cmp.Diff(want, got))
	}
}

func TestAuthHandler_Rejections(t *testing.T) {
	validToken, _, _ := newIssuer().GenerateToken(7, "reader@example.com", middlewares.RolesFor(false))
	foreignToken, _, _ := (&middlewares.TokenIssuer{Key: []byte("other-key"), TTL: time.Hour}).GenerateToken(7, "reader@example.com", nil)
	expiredToken, _, _ := (&middlewares.TokenIssuer{Key: []byte(testKey), TTL: -time.Minute}).GenerateToken(7, "reader@example.com", nil)

	tests := []struct {
		name          string
		authorization string
		want          int
	}{
		{name: "missing header", authorization: "", want: http.StatusUnauthorized},
		{name: "missing prefix", authorization: validToken, want: http.StatusUnauthorized},
		{name: "empty bearer", authorization: "Bearer ", want: http.StatusUnauthorized},
		{name: "garbage", authorization: "Bearer not-a-jwt", want: http.StatusUnauthorized},
		{name: "wrong key", authorization: "Bearer " + foreignToken, want: http.StatusUnauthorized},
		{name: "expired", authorization: "Bearer " + expiredToken, want: http.StatusUnauthorized},
	}

	r := newRouter(&fakeTokenStore{revoked: map[string]bool{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doRequest(r, tt.authorization); w.Code != tt.want {
				t.Errorf("got status %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuthHandler_RevokedToken(t *testing.T) {
	token, expiresAt, _ := newIssuer().GenerateToken(7, "reader@example.com", nil)
	claims, err := middlewares.ValidateClaims(token, testKey)
	if err != nil {
		t.Fatalf("ValidateClaims error: %v", err)
	}

	store := &fakeTokenStore{revoked: map[string]bool{}}
	_ = store.Revoke(context.Background(), claims.Id, expiresAt)

	if w := doRequest(newRouter(store), "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401 for a revoked token", w.Code)
	}
}

func TestAuthHandler_StoreUnavailable(t *testing.T) {
	token, _, _ := newIssuer().GenerateToken(7, "reader@example.com", nil)
	store := &fakeTokenStore{revoked: map[string]bool{}, err: errors.New("connection refused")}

	if w := doRequest(newRouter(store), "Bearer "+token); w.Code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", w.Code)
	}
}

func TestAuthHandler_Roles(t *testing.T) {
	userToken, _, _ := newIssuer().GenerateToken(7, "reader@example.com", middlewares.RolesFor(false))
	adminToken, _, _ := newIssuer().GenerateToken(1, "admin@example.com", middlewares.RolesFor(true))

	r := newRouter(&fakeTokenStore{revoked: map[string]bool{}}, middlewares.RoleAdmin)

	if w := doRequest(r, "Bearer "+userToken); w.Code != http.StatusForbidden {
		t.Errorf("got status %d, want 403 for missing role", w.Code)
	}
	if w := doRequest(r, "Bearer "+adminToken); w.Code != http.StatusOK {
		t.Errorf("got status %d, want 200 for admin", w.Code)
	}
}

func TestTokenIssuer_UniqueTokenIds(t *testing.T) {
	issuer := newIssuer()
	a, _, _ := issuer.GenerateToken(7, "reader@example.com", nil)
	b, _, _ := issuer.GenerateToken(7, "reader@example.com", nil)

	claimsA, errA := middlewares.ValidateClaims(a, testKey)
	claimsB, errB := middlewares.ValidateClaims(b, testKey)
	if errA != nil || errB != nil {
		t.Fatalf("ValidateClaims errors: %v, %v", errA, errB)
	}

	if claimsA.Id == claimsB.Id {
		t.Errorf("token ids must differ, both are %s", claimsA.Id)
	}
	if claimsA.Issuer != "milk2meat" || claimsA.Subject != "7" {
		t.Errorf("unexpected claims: %+v", claimsA.StandardClaims)
	}
}

func TestRolesFor(t *testing.T) {
	if got := middlewares.RolesFor(true); !cmp.Equal(got, []string{"admin", "user"}) {
		t.Error(cmp.Diff([]string{"admin", "user"}, got))
	}
	if got := middlewares.RolesFor(false); !cmp.Equal(got, []string{"user"}) {
		t.Error(cmp.Diff([]string{"user"}, got))
	}
}
