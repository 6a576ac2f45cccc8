package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/retry"
	"github.com/barneeyyu/library-server/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type BorrowRequest struct {
	InventoryID int32 `json:"inventory_id" validate:"required,gt=0"`
}

type BorrowHandler struct {
	borrowSvc       service.BorrowService
	scannerSvc      service.ScannerService
	notificationSvc service.NotificationService
	validate        *validator.Validate
	retryOpts       []retry.Option
}

func NewBorrowHandler(
	borrowSvc service.BorrowService,
	scannerSvc service.ScannerService,
	notificationSvc service.NotificationService,
	retryOpts ...retry.Option,
) *BorrowHandler {
	return &BorrowHandler{
		borrowSvc:       borrowSvc,
		scannerSvc:      scannerSvc,
		notificationSvc: notificationSvc,
		validate:        validator.New(),
		retryOpts:       retryOpts,
	}
}

// POST /api/borrows
func (h *BorrowHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeFailure(w, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}

	var summary *domain.LoanSummary
	err := retry.Do(r.Context(), func(ctx context.Context) error {
		var err error
		summary, err = h.borrowSvc.Borrow(ctx, caller.BorrowerID, req.InventoryID)
		return err
	}, h.retryOpts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Borrow succeeded", "loanID", summary.LoanID, "borrowerID", caller.BorrowerID)
	writeData(w, http.StatusCreated, "Book borrowed", summary)
}

// PUT /api/borrows/{loanId}/return
func (h *BorrowHandler) Return(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	id, err := strconv.ParseInt(mux.Vars(r)["loanId"], 10, 32)
	if err != nil || id <= 0 {
		writeFailure(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	var summary *domain.LoanSummary
	err = retry.Do(r.Context(), func(ctx context.Context) error {
		var err error
		summary, err = h.borrowSvc.Return(ctx, caller.BorrowerID, int32(id))
		return err
	}, h.retryOpts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	message := "Book returned"
	if summary.WasOverdue {
		message = "Book returned after its due date"
	}
	writeData(w, http.StatusOK, message, summary)
}

// GET /api/borrows/my-records
func (h *BorrowHandler) MyRecords(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	views, err := h.borrowSvc.ListHistory(r.Context(), caller.BorrowerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", views)
}

// GET /api/borrows/current
func (h *BorrowHandler) CurrentLoans(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	views, err := h.borrowSvc.ListCurrentLoans(r.Context(), caller.BorrowerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", views)
}

// GET /api/borrows/limits
func (h *BorrowHandler) Limits(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	limits, err := h.borrowSvc.GetBorrowLimits(r.Context(), caller.BorrowerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", limits)
}

// GET /api/borrows/overdue
func (h *BorrowHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.scannerSvc.ListOverdue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", loans)
}

// POST /api/borrows/notifications/due-soon
func (h *BorrowHandler) SendDueSoon(w http.ResponseWriter, r *http.Request) {
	report, err := h.notificationSvc.SendDueSoonNotices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Due-soon notices sent", report)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "ok", nil)
}
