package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sibusisodev/campusmart-backend/internal/auth"
	cartsvc "github.com/sibusisodev/campusmart-backend/internal/cart"
	itemsvc "github.com/sibusisodev/campusmart-backend/internal/items"
	ordersvc "github.com/sibusisodev/campusmart-backend/internal/orders"
	"github.com/sibusisodev/campusmart-backend/internal/payments"
	"github.com/sibusisodev/campusmart-backend/internal/photos"
	usersvc "github.com/sibusisodev/campusmart-backend/internal/users"
	pkgAuth "github.com/sibusisodev/campusmart-backend/pkg/auth"
	"github.com/sibusisodev/campusmart-backend/pkg/auth/session"
	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/redis"
)

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Get(ctx context.Context, userID uuid.UUID) (*usersvc.UserDTO, error) {
	return &usersvc.UserDTO{ID: userID}, nil
}

func (stubUsersService) GetProfile(ctx context.Context, userID uuid.UUID) (*usersvc.ProfileDTO, error) {
	return &usersvc.ProfileDTO{UserID: userID}, nil
}

func (stubUsersService) UpdateProfile(ctx context.Context, userID uuid.UUID, input usersvc.UpdateProfileInput) (*usersvc.ProfileDTO, error) {
	return &usersvc.ProfileDTO{UserID: userID}, nil
}

type stubItemsService struct{}

func (stubItemsService) Create(ctx context.Context, sellerID uuid.UUID, input itemsvc.CreateItemInput) (*itemsvc.ItemDTO, error) {
	return &itemsvc.ItemDTO{}, nil
}

func (stubItemsService) Update(ctx context.Context, sellerID, itemID uuid.UUID, input itemsvc.UpdateItemInput) (*itemsvc.ItemDTO, error) {
	return &itemsvc.ItemDTO{}, nil
}

func (stubItemsService) Delete(ctx context.Context, sellerID, itemID uuid.UUID) error {
	return nil
}

func (stubItemsService) Get(ctx context.Context, itemID uuid.UUID, viewerID *uuid.UUID) (*itemsvc.ItemDTO, error) {
	return &itemsvc.ItemDTO{ID: itemID}, nil
}

func (stubItemsService) Browse(ctx context.Context, input itemsvc.ListInput) (*itemsvc.ListResult, error) {
	return &itemsvc.ListResult{}, nil
}

func (stubItemsService) ChangeStatus(ctx context.Context, sellerID, itemID uuid.UUID, next enums.ItemStatus) (*itemsvc.ItemDTO, error) {
	return &itemsvc.ItemDTO{}, nil
}

func (stubItemsService) Categories(ctx context.Context) ([]itemsvc.CategoryDTO, error) {
	return []itemsvc.CategoryDTO{}, nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, buyerID uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) AddItem(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) UpdateQuantity(ctx context.Context, buyerID, lineID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, buyerID, lineID uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) Clear(ctx context.Context, buyerID uuid.UUID) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) PlaceFromCart(ctx context.Context, buyerID uuid.UUID, input ordersvc.PlaceOrderInput) ([]ordersvc.OrderDTO, error) {
	return nil, nil
}

func (stubOrdersService) Get(ctx context.Context, userID, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrdersService) ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]ordersvc.OrderDTO, error) {
	return nil, nil
}

func (stubOrdersService) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]ordersvc.OrderDTO, error) {
	return nil, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, next enums.OrderStatus) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) PayByCard(ctx context.Context, buyerID, orderID uuid.UUID, input payments.CardPaymentInput) (*payments.PaymentDTO, error) {
	return &payments.PaymentDTO{}, nil
}

func (stubPaymentsService) RecordRefund(ctx context.Context, sellerID, paymentID uuid.UUID) (*payments.PaymentDTO, error) {
	return &payments.PaymentDTO{}, nil
}

func (stubPaymentsService) ListForOrder(ctx context.Context, userID, orderID uuid.UUID) ([]payments.PaymentDTO, error) {
	return nil, nil
}

type stubPhotosService struct{}

func (stubPhotosService) CreateRecord(ctx context.Context, input photos.CreateRecordInput) (*models.ItemPhoto, error) {
	return &models.ItemPhoto{}, nil
}

func (stubPhotosService) Reorder(ctx context.Context, updates []photos.PositionUpdate) error {
	return nil
}

func (stubPhotosService) DeleteRecord(ctx context.Context, recordID uuid.UUID) error {
	return nil
}

func (stubPhotosService) ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.ItemPhoto, error) {
	return nil, nil
}

func (stubPhotosService) CountForItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubPhotosService) CompleteItemUpload(ctx context.Context, itemID uuid.UUID) error {
	return nil
}

func (stubPhotosService) CompleteProfileUpload(ctx context.Context, userID uuid.UUID, url string) error {
	return nil
}

func (stubPhotosService) Stats(ctx context.Context, userID uuid.UUID) (*photos.UserPhotoStats, error) {
	return &photos.UserPhotoStats{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		(*redis.Client)(nil),
		Services{
			Session:  stubSessionManager{},
			Auth:     stubAuthService{},
			Register: stubRegisterService{},
			Users:    stubUsersService{},
			Items:    stubItemsService{},
			Cart:     stubCartService{},
			Orders:   stubOrdersService{},
			Payments: stubPaymentsService{},
			Photos:   stubPhotosService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "thando@students.uct.ac.za",
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicPing(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{
		"/api/v1/catalog/categories",
		"/api/v1/catalog/items",
		"/api/v1/catalog/items/" + uuid.NewString(),
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 without token got %d", path, resp.Code)
		}
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestCartRequiresAuth(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestPublicValidateRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestPublicValidateAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"name":"Zed","email":"zed@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid payload got %d", resp.Code)
	}
}
