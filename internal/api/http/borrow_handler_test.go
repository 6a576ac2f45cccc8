package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpapi "github.com/barneeyyu/library-server/internal/api/http"
	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/policy"
	"github.com/barneeyyu/library-server/internal/retry"
	"github.com/barneeyyu/library-server/internal/security"
	"github.com/barneeyyu/library-server/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	router     *mux.Router
	tokens     security.TokenManager
	borrowSvc  *MockBorrowService
	scannerSvc *MockScannerService
	notifySvc  *MockNotificationService
}

func newTestServer(rps float64, burst int) *testServer {
	s := &testServer{
		tokens:     security.NewTokenManager(testSecret, time.Hour),
		borrowSvc:  new(MockBorrowService),
		scannerSvc: new(MockScannerService),
		notifySvc:  new(MockNotificationService),
	}
	h := httpapi.NewBorrowHandler(s.borrowSvc, s.scannerSvc, s.notifySvc,
		retry.WithMaxAttempts(3), retry.WithBaseDelay(0))
	s.router = httpapi.NewRouter(h, httpapi.NewAuthMiddleware(s.tokens), httpapi.NewRateLimiter(rps, burst))
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string, borrowerID int32, role domain.Role) (*httptest.ResponseRecorder, httpapi.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if borrowerID != 0 {
		token, err := s.tokens.GenerateAccessToken(borrowerID, "reader@example.com", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp httpapi.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func summary() *domain.LoanSummary {
	return &domain.LoanSummary{
		LoanID:     99,
		BookID:     1,
		BookTitle:  "Dune",
		Category:   domain.CategoryBook,
		BranchName: "Central",
		BorrowDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Status:     domain.LoanStatusBorrowed,
	}
}

func TestBorrowHandler_Borrow(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		s := newTestServer(100, 10)
		s.borrowSvc.On("Borrow", mock.Anything, int32(5), int32(7)).Return(summary(), nil)

		rec, resp := s.do(t, http.MethodPost, "/api/borrows", `{"inventory_id": 7}`, 5, domain.RoleMember)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(99), data["loan_id"])
		assert.Equal(t, "2026-04-10T00:00:00Z", data["due_date"])
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		s := newTestServer(100, 10)
		rec, resp := s.do(t, http.MethodPost, "/api/borrows", `{`, 5, domain.RoleMember)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, resp.Success)
	})

	t.Run("Validation Error", func(t *testing.T) {
		s := newTestServer(100, 10)
		rec, resp := s.do(t, http.MethodPost, "/api/borrows", `{"inventory_id": 0}`, 5, domain.RoleMember)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, resp.Message, "validation error")
		s.borrowSvc.AssertNotCalled(t, "Borrow", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Retries Conflict", func(t *testing.T) {
		s := newTestServer(100, 10)
		conflict := fmt.Errorf("inventory record 7 no longer at version 4: %w", domain.ErrConflict)
		s.borrowSvc.On("Borrow", mock.Anything, int32(5), int32(7)).Return(nil, conflict).Once()
		s.borrowSvc.On("Borrow", mock.Anything, int32(5), int32(7)).Return(summary(), nil).Once()

		rec, _ := s.do(t, http.MethodPost, "/api/borrows", `{"inventory_id": 7}`, 5, domain.RoleMember)
		assert.Equal(t, http.StatusCreated, rec.Code)
		s.borrowSvc.AssertNumberOfCalls(t, "Borrow", 2)
	})

	t.Run("Conflict Exhausted", func(t *testing.T) {
		s := newTestServer(100, 10)
		s.borrowSvc.On("Borrow", mock.Anything, int32(5), int32(7)).Return(nil, domain.ErrConflict)

		rec, resp := s.do(t, http.MethodPost, "/api/borrows", `{"inventory_id": 7}`, 5, domain.RoleMember)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Contains(t, resp.Message, "please retry")
		s.borrowSvc.AssertNumberOfCalls(t, "Borrow", 3)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
	}{
		{"Not Found", fmt.Errorf("inventory record 7: %w", domain.ErrNotFound), http.StatusNotFound},
		{"Unavailable", fmt.Errorf("%w: no copies available", domain.ErrUnavailable), http.StatusConflict},
		{"Already Borrowed", domain.ErrAlreadyBorrowed, http.StatusConflict},
		{"Limit Exceeded", &domain.LimitExceededError{Category: domain.CategoryBook, Current: 10, Max: 10}, http.StatusUnprocessableEntity},
		{"Internal", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(100, 10)
			s.borrowSvc.On("Borrow", mock.Anything, int32(5), int32(7)).Return(nil, tc.err)

			rec, resp := s.do(t, http.MethodPost, "/api/borrows", `{"inventory_id": 7}`, 5, domain.RoleMember)
			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, resp.Success)
			s.borrowSvc.AssertNumberOfCalls(t, "Borrow", 1)
		})
	}
}

func TestBorrowHandler_Return(t *testing.T) {
	t.Run("Late Return", func(t *testing.T) {
		s := newTestServer(100, 10)
		returned := summary()
		returned.Status = domain.LoanStatusReturned
		returned.WasOverdue = true
		s.borrowSvc.On("Return", mock.Anything, int32(5), int32(99)).Return(returned, nil)

		rec, resp := s.do(t, http.MethodPut, "/api/borrows/99/return", "", 5, domain.RoleMember)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Book returned after its due date", resp.Message)
		assert.Equal(t, true, resp.Data.(map[string]any)["was_overdue"])
	})

	t.Run("Someone Else's Loan", func(t *testing.T) {
		s := newTestServer(100, 10)
		s.borrowSvc.On("Return", mock.Anything, int32(6), int32(99)).Return(nil, domain.ErrNotBorrowedByUser)

		rec, _ := s.do(t, http.MethodPut, "/api/borrows/99/return", "", 6, domain.RoleMember)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Already Returned", func(t *testing.T) {
		s := newTestServer(100, 10)
		s.borrowSvc.On("Return", mock.Anything, int32(5), int32(99)).Return(nil, domain.ErrAlreadyReturned)

		rec, _ := s.do(t, http.MethodPut, "/api/borrows/99/return", "", 5, domain.RoleMember)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestBorrowHandler_Queries(t *testing.T) {
	s := newTestServer(100, 10)
	s.borrowSvc.On("ListHistory", mock.Anything, int32(5)).Return([]domain.LoanView{{IsOverdue: true}}, nil)
	s.borrowSvc.On("ListCurrentLoans", mock.Anything, int32(5)).Return([]domain.LoanView{}, nil)
	s.borrowSvc.On("GetBorrowLimits", mock.Anything, int32(5)).Return(map[domain.Category]policy.LimitInfo{
		domain.CategoryBook: {Category: domain.CategoryBook, CurrentCount: 2, MaxLimit: 10, AvailableSlots: 8, CanBorrow: true},
	}, nil)

	rec, resp := s.do(t, http.MethodGet, "/api/borrows/my-records", "", 5, domain.RoleMember)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)

	rec, _ = s.do(t, http.MethodGet, "/api/borrows/current", "", 5, domain.RoleMember)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/borrows/limits", "", 5, domain.RoleMember)
	assert.Equal(t, http.StatusOK, rec.Code)
	book := resp.Data.(map[string]any)["BOOK"].(map[string]any)
	assert.Equal(t, float64(8), book["available_slots"])
}

func TestBorrowHandler_LibrarianRoutes(t *testing.T) {
	s := newTestServer(100, 10)
	s.scannerSvc.On("ListOverdue", mock.Anything).Return([]domain.LoanDetail{{BookTitle: "Dune"}}, nil)
	s.notifySvc.On("SendDueSoonNotices", mock.Anything).Return(service.DeliveryReport{Total: 2, Sent: 2}, nil)

	rec, _ := s.do(t, http.MethodGet, "/api/borrows/overdue", "", 5, domain.RoleMember)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	s.scannerSvc.AssertNotCalled(t, "ListOverdue", mock.Anything)

	rec, resp := s.do(t, http.MethodGet, "/api/borrows/overdue", "", 1, domain.RoleLibrarian)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)

	rec, resp = s.do(t, http.MethodPost, "/api/borrows/notifications/due-soon", "", 1, domain.RoleLibrarian)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), resp.Data.(map[string]any)["sent"])
}

func TestMiddleware(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		s := newTestServer(100, 10)
		rec, resp := s.do(t, http.MethodGet, "/api/borrows/current", "", 0, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, resp.Success)
	})

	t.Run("Health Is Public", func(t *testing.T) {
		s := newTestServer(100, 10)
		rec, resp := s.do(t, http.MethodGet, "/healthz", "", 0, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("Request ID Is Echoed", func(t *testing.T) {
		s := newTestServer(100, 10)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("Rate Limited Per Borrower", func(t *testing.T) {
		s := newTestServer(0.001, 1)
		s.borrowSvc.On("ListCurrentLoans", mock.Anything, mock.Anything).Return([]domain.LoanView{}, nil)

		rec, _ := s.do(t, http.MethodGet, "/api/borrows/current", "", 5, domain.RoleMember)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec, _ = s.do(t, http.MethodGet, "/api/borrows/current", "", 5, domain.RoleMember)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		rec, _ = s.do(t, http.MethodGet, "/api/borrows/current", "", 6, domain.RoleMember)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
