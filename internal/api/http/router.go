package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers the circulation routes. Middleware runs in the order
// request id, auth, rate limit.
func NewRouter(h *BorrowHandler, auth *AuthMiddleware, limiter *RateLimiter) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID, auth.Handler, limiter.Handler)

	router.HandleFunc("/healthz", Healthz).Methods(http.MethodGet).Name("healthz")

	router.HandleFunc("/api/borrows", h.Borrow).Methods(http.MethodPost).Name("borrow")
	router.HandleFunc("/api/borrows/{loanId:[0-9]+}/return", h.Return).Methods(http.MethodPut).Name("return")
	router.HandleFunc("/api/borrows/my-records", h.MyRecords).Methods(http.MethodGet).Name("my-records")
	router.HandleFunc("/api/borrows/current", h.CurrentLoans).Methods(http.MethodGet).Name("current-loans")
	router.HandleFunc("/api/borrows/limits", h.Limits).Methods(http.MethodGet).Name("borrow-limits")
	router.HandleFunc("/api/borrows/overdue", h.Overdue).Methods(http.MethodGet).Name("overdue-loans")
	router.HandleFunc("/api/borrows/notifications/due-soon", h.SendDueSoon).Methods(http.MethodPost).Name("send-due-soon")

	return router
}
