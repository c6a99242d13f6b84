package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"commerce-chatbot/internal/domain"
	"commerce-chatbot/internal/intent"
)

const (
	defaultMaxMessageLen = 1000
	defaultListLimit     = 10
	maxListLimit         = 50
)

// StatsCollections are the collections reported by Stats.
var StatsCollections = []string{
	"distribution_centers",
	"products",
	"users",
	"orders",
	"inventory_items",
	"order_items",
}

// RecordStore is the read side of the document store.
type RecordStore interface {
	FindByID(ctx context.Context, entity domain.Entity, id int64) (domain.Record, bool, error)
	OrdersByUser(ctx context.Context, userID int64, limit int) ([]domain.Record, error)
	SearchProducts(ctx context.Context, terms []string, limit int) ([]domain.Record, error)
	SampleInventory(ctx context.Context, limit int) ([]domain.Record, error)
	Count(ctx context.Context, collection string) (int64, error)
}

// HistoryStore persists processed exchanges.
type HistoryStore interface {
	SaveExchange(ctx context.Context, ex domain.Exchange) error
	RecentExchanges(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error)
}

type MetricsRecorder interface {
	ObserveIntent(kind string)
	ObserveStoreError(reason string)
	ObserveProcessLatency(d time.Duration)
}

type ChatService struct {
	store         RecordStore
	history       HistoryStore
	log           zerolog.Logger
	metrics       MetricsRecorder
	maxMessageLen int
	now           func() time.Time
}

type ChatInput struct {
	Message   string
	SessionID string
	UserID    *int64
}

type ChatOutput struct {
	Reply     string
	SessionID string
	Timestamp time.Time
}

func NewChatService(store RecordStore, history HistoryStore, log zerolog.Logger, metrics MetricsRecorder, maxMessageLen int) (*ChatService, error) {
	if store == nil {
		return nil, errors.New("usecase: record store must not be nil")
	}
	if history == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessageLen
	}
	return &ChatService{
		store:         store,
		history:       history,
		log:           log,
		metrics:       metrics,
		maxMessageLen: maxMessageLen,
		now:           time.Now,
	}, nil
}

// Process classifies u, runs the matching handler and records the exchange.
// It always returns a non-empty reply.
func (s *ChatService) Process(ctx context.Context, u domain.Utterance) string {
	start := s.now()
	reply := s.respond(ctx, u)
	s.metrics.ObserveProcessLatency(s.now().Sub(start))
	s.record(ctx, u, reply)
	return reply
}

func (s *ChatService) respond(ctx context.Context, u domain.Utterance) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Interface("panic", r).
				Str("session_id", u.SessionID).
				Msg("process message failed")
			reply = replyGenericError
		}
	}()

	in := intent.Parse(u.Text)
	s.metrics.ObserveIntent(in.Kind.String())

	var err error
	reply, err = s.dispatch(ctx, u, in)
	if err != nil {
		reason := reasonOf(err)
		s.metrics.ObserveStoreError(reason)
		s.log.Error().
			Err(err).
			Str("op", reason).
			Str("intent", in.Kind.String()).
			Str("entity", string(in.Entity)).
			Int64("id", in.ID).
			Str("session_id", u.SessionID).
			Msg("store query failed")
		reply = apologyFor(reason)
	}
	if strings.TrimSpace(reply) == "" {
		reply = replyGenericError
	}
	return reply
}

// record persists the exchange. Failures are logged and never affect the
// reply already computed.
func (s *ChatService) record(ctx context.Context, u domain.Utterance, reply string) {
	ex := domain.Exchange{
		ID:          newUUID(),
		SessionID:   u.SessionID,
		UserMessage: u.Text,
		BotResponse: reply,
		CreatedAt:   s.now().UTC(),
	}
	if id, ok := u.CallerID(); ok {
		ex.UserID = &id
	}
	if err := s.history.SaveExchange(ctx, ex); err != nil {
		s.metrics.ObserveStoreError("save_exchange")
		s.log.Warn().Err(err).Str("session_id", u.SessionID).Msg("save chat history failed")
	}
}

// Chat validates an API request and processes it as one utterance.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if utf8.RuneCountInString(message) > s.maxMessageLen {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newUUID()
	}

	reply := s.Process(ctx, domain.Utterance{Text: message, SessionID: sessionID, UserID: in.UserID})
	return ChatOutput{
		Reply:     reply,
		SessionID: sessionID,
		Timestamp: s.now().UTC(),
	}, nil
}

// History returns the most recent exchanges of a session, oldest first.
func (s *ChatService) History(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, newError(ErrorInvalidInput, "empty_session_id", nil)
	}
	exchanges, err := s.history.RecentExchanges(ctx, sessionID, clampLimit(limit))
	if err != nil {
		return nil, newError(ErrorInternal, "history_read_error", err)
	}
	return exchanges, nil
}

func (s *ChatService) UserOrders(ctx context.Context, userID int64, limit int) ([]domain.Record, error) {
	if userID <= 0 {
		return nil, newError(ErrorInvalidInput, "invalid_user_id", nil)
	}
	limit = clampLimit(limit)
	orders, err := s.store.OrdersByUser(ctx, userID, limit)
	if err != nil {
		return nil, newError(ErrorUnavailable, "orders_query_error", err)
	}
	return capRecords(orders, limit), nil
}

// SearchProducts matches the whole query as one case-insensitive substring.
func (s *ChatService) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Record, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, newError(ErrorInvalidInput, "empty_query", nil)
	}
	limit = clampLimit(limit)
	products, err := s.store.SearchProducts(ctx, []string{query}, limit)
	if err != nil {
		return nil, newError(ErrorUnavailable, "product_search_error", err)
	}
	return capRecords(products, limit), nil
}

// Stats reports the item count of every known collection.
func (s *ChatService) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, len(StatsCollections))
	for _, c := range StatsCollections {
		n, err := s.store.Count(ctx, c)
		if err != nil {
			return nil, newError(ErrorUnavailable, "stats_error", err)
		}
		stats[c] = n
	}
	return stats, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func reasonOf(err error) string {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return "unknown"
}

type nopMetrics struct{}

func (nopMetrics) ObserveIntent(string)                {}
func (nopMetrics) ObserveStoreError(string)            {}
func (nopMetrics) ObserveProcessLatency(time.Duration) {}

var newUUID = func() string {
	return uuid.NewString()
}
