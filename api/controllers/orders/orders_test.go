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

	"github.com/angelmondragon/shopcore-backend/api/middleware"
	internalorders "github.com/angelmondragon/shopcore-backend/internal/orders"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox"
	"github.com/angelmondragon/shopcore-backend/pkg/pagination"
)

type stubOrdersService struct {
	order      *internalorders.OrderDTO
	list       *internalorders.OrderList
	err        error
	gotParams  pagination.Params
	gotFilters internalorders.ListFilters
	gotActor   outbox.ActorRef
	gotNext    enums.OrderStatus
	gotUser    uuid.UUID
	gotOrder   uuid.UUID
}

func (s *stubOrdersService) ListForUser(_ context.Context, userID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	s.gotUser = userID
	s.gotParams = params
	return s.list, s.err
}

func (s *stubOrdersService) GetForUser(_ context.Context, userID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.gotUser = userID
	s.gotOrder = orderID
	return s.order, s.err
}

func (s *stubOrdersService) List(_ context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
	s.gotParams = params
	s.gotFilters = filters
	return s.list, s.err
}

func (s *stubOrdersService) Get(_ context.Context, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.gotOrder = orderID
	return s.order, s.err
}

func (s *stubOrdersService) Refund(_ context.Context, actor outbox.ActorRef, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.gotActor = actor
	s.gotOrder = orderID
	return s.order, s.err
}

func (s *stubOrdersService) Cancel(_ context.Context, userID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.gotUser = userID
	s.gotOrder = orderID
	return s.order, s.err
}

func (s *stubOrdersService) AdvanceStatus(_ context.Context, actor outbox.ActorRef, orderID uuid.UUID, next enums.OrderStatus) (*internalorders.OrderDTO, error) {
	s.gotActor = actor
	s.gotOrder = orderID
	s.gotNext = next
	return s.order, s.err
}

func newRequest(method, target, body string, userID uuid.UUID, role enums.Role, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	return req.WithContext(ctx)
}

func TestListPassesPagination(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{list: &internalorders.OrderList{NextCursor: "next"}}

	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", "", userID, enums.RoleCustomer, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotUser != userID || svc.gotParams.Limit != 5 || svc.gotParams.Cursor != "abc" {
		t.Fatalf("unexpected args %s %+v", svc.gotUser, svc.gotParams)
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/orders?limit=0", "", uuid.New(), enums.RoleCustomer, nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{err: pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonOrderNotFound, "order not found")}

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", uuid.New(), enums.RoleCustomer, map[string]string{"orderId": orderID.String()}))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.gotOrder != orderID {
		t.Fatalf("unexpected order id %s", svc.gotOrder)
	}
}

func TestCancelStateConflict(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{err: pkgerrors.NewReason(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidOrderStatus, "only pending orders can be cancelled")}

	resp := httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", "", uuid.New(), enums.RoleCustomer, map[string]string{"orderId": orderID.String()}))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdminListStatusFilter(t *testing.T) {
	svc := &stubOrdersService{list: &internalorders.OrderList{}}

	resp := httptest.NewRecorder()
	AdminList(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/admin/orders?status=paid", "", uuid.New(), enums.RoleAdmin, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotFilters.Status == nil || *svc.gotFilters.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid filter, got %+v", svc.gotFilters)
	}

	resp = httptest.NewRecorder()
	AdminList(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/admin/orders?status=lost", "", uuid.New(), enums.RoleAdmin, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", resp.Code)
	}
}

func TestAdminRefundCarriesActor(t *testing.T) {
	adminID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{order: &internalorders.OrderDTO{ID: orderID, Status: enums.OrderStatusCancelled}}

	resp := httptest.NewRecorder()
	AdminRefund(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/admin/orders/"+orderID.String()+"/refund", "", adminID, enums.RoleAdmin, map[string]string{"orderId": orderID.String()}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotActor.UserID != adminID || svc.gotActor.Role != string(enums.RoleAdmin) {
		t.Fatalf("unexpected actor %+v", svc.gotActor)
	}

	var envelope struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusCancelled {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestAdminAdvanceStatus(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &internalorders.OrderDTO{ID: orderID, Status: enums.OrderStatusShipped}}
	params := map[string]string{"orderId": orderID.String()}

	resp := httptest.NewRecorder()
	AdminAdvanceStatus(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/admin/orders/x/status", `{"status":"shipped"}`, uuid.New(), enums.RoleAdmin, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotNext != enums.OrderStatusShipped {
		t.Fatalf("unexpected next status %s", svc.gotNext)
	}

	resp = httptest.NewRecorder()
	AdminAdvanceStatus(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/admin/orders/x/status", `{"status":"paid"}`, uuid.New(), enums.RoleAdmin, params))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-advance status got %d", resp.Code)
	}
}
