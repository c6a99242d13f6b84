package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"commerce-chatbot/internal/domain"
	"commerce-chatbot/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type UseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	History(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error)
	UserOrders(ctx context.Context, userID int64, limit int) ([]domain.Record, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]domain.Record, error)
	Stats(ctx context.Context) (map[string]int64, error)
}

// Handler serves the chatbot HTTP API. It is an http.Handler and, through
// Handle, an API Gateway proxy Lambda handler.
type Handler struct {
	uc     UseCase
	log    zerolog.Logger
	router chi.Router
	now    func() time.Time
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    *int64 `json:"user_id,omitempty"`
}

type chatResponse struct {
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	History   []domain.Exchange `json:"history"`
}

type userOrdersResponse struct {
	UserID int64           `json:"user_id"`
	Orders []domain.Record `json:"orders"`
	Count  int             `json:"count"`
}

type searchResponse struct {
	Query    string          `json:"query"`
	Products []domain.Record `json:"products"`
	Count    int             `json:"count"`
}

type statsResponse struct {
	DataStatistics map[string]int64 `json:"data_statistics"`
	Timestamp      time.Time        `json:"timestamp"`
}

type healthResponse struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the route table. metrics may be nil, in which case
// /metrics is not served.
func NewHandler(uc UseCase, log zerolog.Logger, metrics http.Handler) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{uc: uc, log: log, now: time.Now}

	r := chi.NewRouter()
	r.Use(correlationID)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: string(usecase.ErrorNotFound), Message: "route_not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: string(usecase.ErrorInvalidInput), Message: "method_not_allowed"})
	})
	r.Get("/", h.handleHealth)
	r.Post("/chat", h.handleChat)
	r.Get("/chat/history/{sessionID}", h.handleHistory)
	r.Get("/data/stats", h.handleStats)
	r.Get("/users/{userID}/orders", h.handleUserOrders)
	r.Get("/products/search", h.handleSearchProducts)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	h.router = r
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Message:   "E-commerce Chatbot API is running",
		Status:    "healthy",
		Timestamp: h.now().UTC(),
	})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Message: "invalid_body"})
		return
	}
	out, err := h.uc.Chat(r.Context(), usecase.ChatInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:  out.Reply,
		SessionID: out.SessionID,
		Timestamp: out.Timestamp,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	history, err := h.uc.History(r.Context(), sessionID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []domain.Exchange{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, History: history})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.uc.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{DataStatistics: stats, Timestamp: h.now().UTC()})
}

func (h *Handler) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Message: "invalid_user_id"})
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	orders, err := h.uc.UserOrders(r.Context(), userID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, userOrdersResponse{UserID: userID, Orders: orders, Count: len(orders)})
}

func (h *Handler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	products, err := h.uc.SearchProducts(r.Context(), query, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Products: products, Count: len(products)})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("correlation_id", w.Header().Get(correlationHeader)).
			Msg("request failed")
	}
	writeJSON(w, status, body)
}

func mapError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
	body := errorResponse{Error: string(ucErr.Code), Message: ucErr.Reason}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, body
	case usecase.ErrorNotFound:
		return http.StatusNotFound, body
	case usecase.ErrorUnavailable:
		return http.StatusServiceUnavailable, body
	}
	return http.StatusInternalServerError, body
}

// limitParam parses the optional limit query parameter. Zero means "use the
// default". It writes a 400 and reports false on a malformed value.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Message: "invalid_limit"})
		return 0, false
	}
	return n, true
}

func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(correlationHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
