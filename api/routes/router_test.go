package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"myshop-backend/internal/catalog"
	pkgauth "myshop-backend/pkg/auth"
	"myshop-backend/pkg/config"
	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/enums"
	"myshop-backend/pkg/logger"
	"myshop-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct {
	listed int
}

func (s *stubCatalogService) List(ctx context.Context, input catalog.ListInput, now time.Time) (*catalog.ListResult, error) {
	s.listed++
	return &catalog.ListResult{Products: []catalog.Summary{}}, nil
}

func (s *stubCatalogService) Detail(ctx context.Context, slug string, now time.Time) (*catalog.Detail, error) {
	return &catalog.Detail{}, nil
}

func (s *stubCatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        15 * time.Minute,
			LoginIPLimit:       20,
			LoginEmailLimit:    5,
			RegisterWindow:     time.Hour,
			RegisterIPLimit:    10,
			RegisterEmailLimit: 3,
		},
	}
}

func newTestRouter(cfg *config.Config, svcs Services) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, (*redis.Client)(nil), svcs)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if env := resp.Header().Get("X-MyShop-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestProductBrowseIsPublic(t *testing.T) {
	svc := &stubCatalogService{}
	router := newTestRouter(testConfig(), Services{Catalog: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public browse got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listed != 1 {
		t.Fatalf("expected one list call got %d", svc.listed)
	}
}

func TestBuyerGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{})

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	// Admin passes the role gate; the nil service answers 500 rather
	// than 401/403.
	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code == http.StatusUnauthorized || resp.Code == http.StatusForbidden {
		t.Fatalf("admin should pass the role gate, got %d", resp.Code)
	}
}

func TestOrderHistoryRequiresAuth(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous order history got %d", resp.Code)
	}
}
