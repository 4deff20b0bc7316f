package transport

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/middleware"
	"catalog-sync/internal/repository"
	"catalog-sync/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "transport-test-secret"

type fakeCatalogService struct {
	mu         sync.Mutex
	page       *domain.Page
	lastFilter domain.QueryFilter
	queries    int
	deleteErr  error
	deleted    []string
}

func (f *fakeCatalogService) Query(ctx context.Context, filter domain.QueryFilter) *domain.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	f.queries++
	if f.page != nil {
		return f.page
	}
	return &domain.Page{Items: []*domain.CatalogRecord{}, Page: 1, Limit: 5}
}

func (f *fakeCatalogService) Delete(ctx context.Context, sku string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, sku)
	return nil
}

type fakeReportService struct {
	metrics      *domain.Metrics
	health       []domain.InventoryHealth
	err          error
	calls        int
	lastFilter   domain.ReportFilter
	lastCategory *string
}

func (f *fakeReportService) Metrics(ctx context.Context, filter domain.ReportFilter) (*domain.Metrics, error) {
	f.calls++
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	if f.metrics != nil {
		return f.metrics, nil
	}
	return &domain.Metrics{}, nil
}

func (f *fakeReportService) InventoryHealth(ctx context.Context, category *string) ([]domain.InventoryHealth, error) {
	f.calls++
	f.lastCategory = category
	if f.err != nil {
		return nil, f.err
	}
	if f.health == nil {
		return []domain.InventoryHealth{}, nil
	}
	return f.health, nil
}

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Username]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[username]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func signTestToken(t *testing.T, username, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"sub":      username,
		"role":     role,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

type testAPI struct {
	router  chi.Router
	catalog *fakeCatalogService
	reports *fakeReportService
	users   *mockUserRepository
	service service.UserService
}

func newTestAPI() *testAPI {
	logger := zap.NewNop()
	api := &testAPI{
		router:  chi.NewRouter(),
		catalog: &fakeCatalogService{},
		reports: &fakeReportService{},
		users:   newMockUserRepository(),
	}
	api.service = service.NewUserService(api.users, testSecret, time.Hour)

	auth := middleware.AuthMiddleware(testSecret, logger)
	NewCatalogHandler(api.catalog, logger).RegisterRoutes(api.router)
	NewReportHandler(api.reports, api.catalog, logger).RegisterRoutes(api.router, auth)
	NewUserHandler(api.service, logger).RegisterRoutes(api.router, auth)
	return api
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
