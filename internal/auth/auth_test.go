package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/repository"
	"github.com/jobboard/job-board/internal/repository/memory"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken(domain.Identity{UserID: "u-1", Email: "a@example.com", Role: domain.UserRoleAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, domain.UserRoleAdmin, claims.Role)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 5).GenerateToken(domain.Identity{UserID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("two", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	claims := &Claims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 5).ParseToken(signed)
	assert.Error(t, err)
}

func TestGenerateTokenRequiresIdentity(t *testing.T) {
	_, _, err := NewTokenManager("secret", 5).GenerateToken(domain.Identity{})
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.Error(t, ComparePassword(hash, "wrong"))

	hash, err = HashPassword("hunter22", 1000)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
}

func newTestApp(t *testing.T, tm *TokenManager, store *memory.Store, extra ...fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm, store.Users()).Handle}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusTeapot)
		}
		return c.JSON(identity)
	})
	app.Get("/me", handlers...)
	return app
}

func request(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestMiddlewareResolvesStoredUser(t *testing.T) {
	store := memory.NewStore()
	user := &domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.UserRoleAdmin}
	require.NoError(t, store.Users().Create(context.Background(), user))

	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(domain.Identity{UserID: user.ID, Role: domain.UserRoleUser})
	require.NoError(t, err)

	app := newTestApp(t, tm, store, RequireRole(domain.UserRoleAdmin))
	resp := request(t, app, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareAcceptsUnprovisionedEmailIdentity(t *testing.T) {
	store := memory.NewStore()
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(domain.Identity{Email: "new@example.com", Name: "New"})
	require.NoError(t, err)

	resp := request(t, newTestApp(t, tm, store), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejects(t *testing.T) {
	store := memory.NewStore()
	tm := NewTokenManager("secret", 5)
	app := newTestApp(t, tm, store)

	assert.Equal(t, http.StatusUnauthorized, request(t, app, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, request(t, app, "garbage").StatusCode)

	ghost, _, err := tm.GenerateToken(domain.Identity{UserID: "deleted-user"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, request(t, app, ghost).StatusCode)
}

func TestRequireRoleRejectsNonAdmin(t *testing.T) {
	store := memory.NewStore()
	user := &domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.UserRoleUser}
	require.NoError(t, store.Users().Create(context.Background(), user))

	tm := NewTokenManager("secret", 5)
	// the role claim is ignored in favour of the stored role
	token, _, err := tm.GenerateToken(domain.Identity{UserID: user.ID, Role: domain.UserRoleAdmin})
	require.NoError(t, err)

	resp := request(t, newTestApp(t, tm, store, RequireRole(domain.UserRoleAdmin)), token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// exactEmailUsers matches emails byte for byte, like the Postgres lookup.
type exactEmailUsers struct {
	repository.UserRepository
}

func (r exactEmailUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.UserRepository.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Email != email {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func TestMiddlewareNormalizesEmailClaim(t *testing.T) {
	store := memory.NewStore()
	owner := &domain.User{Name: "Bob", Email: "bob@x.com", Role: domain.UserRoleUser}
	require.NoError(t, store.Users().Create(context.Background(), owner))

	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(domain.Identity{Email: " Bob@X.com "})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(tm, exactEmailUsers{store.Users()}).Handle, func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		return c.JSON(identity)
	})

	resp := request(t, app, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got domain.Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, owner.ID, got.UserID)
	assert.Equal(t, "bob@x.com", got.Email)
}
