package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tradeflow-backend/api/middleware"
	internalorders "github.com/angelmondragon/tradeflow-backend/internal/orders"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
)

type stubOrdersService struct {
	listParams internalorders.ListParams
	listParty  string
	getType    enums.UserType
	update     internalorders.UpdateStatusInput
	cancelled  uuid.UUID
	err        error
}

func (s *stubOrdersService) ListForRetailer(ctx context.Context, retailerID uuid.UUID, params internalorders.ListParams) (*internalorders.OrderList, error) {
	s.listParty, s.listParams = "retailer", params
	return &internalorders.OrderList{Items: []internalorders.OrderDTO{}}, s.err
}

func (s *stubOrdersService) ListForWholesaler(ctx context.Context, wholesalerID uuid.UUID, params internalorders.ListParams) (*internalorders.OrderList, error) {
	s.listParty, s.listParams = "wholesaler", params
	return &internalorders.OrderList{Items: []internalorders.OrderDTO{}}, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, userID uuid.UUID, userType enums.UserType, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.getType = userType
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, wholesalerID, orderID uuid.UUID, input internalorders.UpdateStatusInput) (*internalorders.OrderDTO, error) {
	s.update = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, Status: input.Status, TrackingNumber: input.TrackingNumber}, nil
}

func (s *stubOrdersService) Cancel(ctx context.Context, retailerID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.cancelled = orderID
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, Status: enums.OrderStatusCancelled}, nil
}

func newTestRouter(svc internalorders.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/orders", ListMine(svc, nil))
	r.Get("/orders/received", ListReceived(svc, nil))
	r.Get("/orders/{orderId}", Detail(svc, nil))
	r.Patch("/orders/{orderId}/status", UpdateStatus(svc, nil))
	r.Post("/orders/{orderId}/cancel", CancelOrder(svc, nil))
	return r
}

func do(handler http.Handler, method, target, body string, userType enums.UserType) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), userType))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestListParsesQuery(t *testing.T) {
	svc := &stubOrdersService{}
	router := newTestRouter(svc)

	resp := do(router, http.MethodGet, "/orders/received?limit=5&status=shipped&cursor=abc", "", enums.UserTypeWholesaler)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listParty != "wholesaler" {
		t.Fatalf("expected wholesaler listing, got %s", svc.listParty)
	}
	if svc.listParams.Limit != 5 || svc.listParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.listParams)
	}
	if svc.listParams.Status == nil || *svc.listParams.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped filter, got %v", svc.listParams.Status)
	}

	resp = do(router, http.MethodGet, "/orders", "", enums.UserTypeRetailer)
	if resp.Code != http.StatusOK || svc.listParty != "retailer" {
		t.Fatalf("expected retailer listing, got %d %s", resp.Code, svc.listParty)
	}
	if svc.listParams.Status != nil {
		t.Fatalf("expected no status filter")
	}
}

func TestListRejectsBadQuery(t *testing.T) {
	router := newTestRouter(&stubOrdersService{})
	for _, target := range []string{"/orders?status=lost", "/orders?limit=0", "/orders?limit=1000"} {
		if resp := do(router, http.MethodGet, target, "", enums.UserTypeRetailer); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", target, resp.Code)
		}
	}
}

func TestDetailPassesViewerType(t *testing.T) {
	svc := &stubOrdersService{}
	router := newTestRouter(svc)
	orderID := uuid.New()

	resp := do(router, http.MethodGet, "/orders/"+orderID.String(), "", enums.UserTypeWholesaler)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.getType != enums.UserTypeWholesaler {
		t.Fatalf("expected wholesaler viewer, got %s", svc.getType)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	resp = do(router, http.MethodGet, "/orders/"+orderID.String(), "", enums.UserTypeRetailer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := &stubOrdersService{}
	router := newTestRouter(svc)
	orderID := uuid.New()

	resp := do(router, http.MethodPatch, "/orders/"+orderID.String()+"/status", `{"status":" Shipped ","trackingNumber":"TRK-1"}`, enums.UserTypeWholesaler)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.update.Status != enums.OrderStatusShipped {
		t.Fatalf("expected normalized status, got %q", svc.update.Status)
	}
	var body struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.TrackingNumber == nil || *body.Data.TrackingNumber != "TRK-1" {
		t.Fatalf("expected tracking number echoed, got %v", body.Data.TrackingNumber)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from pending to delivered").
		WithDetails(map[string]any{"from": "pending", "to": "delivered"})
	resp = do(router, http.MethodPatch, "/orders/"+orderID.String()+"/status", `{"status":"delivered"}`, enums.UserTypeWholesaler)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"from":"pending"`) {
		t.Fatalf("expected transition details, got %s", resp.Body.String())
	}
}

func TestUpdateStatusRequiresStatus(t *testing.T) {
	router := newTestRouter(&stubOrdersService{})
	resp := do(router, http.MethodPatch, "/orders/"+uuid.NewString()+"/status", `{}`, enums.UserTypeWholesaler)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelOrder(t *testing.T) {
	svc := &stubOrdersService{}
	router := newTestRouter(svc)
	orderID := uuid.New()

	resp := do(router, http.MethodPost, "/orders/"+orderID.String()+"/cancel", "", enums.UserTypeRetailer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.cancelled != orderID {
		t.Fatalf("expected cancel of %s, got %s", orderID, svc.cancelled)
	}

	resp = do(router, http.MethodPost, "/orders/bad/cancel", "", enums.UserTypeRetailer)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
