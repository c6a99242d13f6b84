package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"commerce-chatbot/internal/domain"
	"commerce-chatbot/internal/intent"
)

const (
	resultLimit    = 5
	maxSearchTerms = 3
	minTermLength  = 4

	reasonOrdersByUser    = "orders_by_user"
	reasonProductSearch   = "product_search"
	reasonInventorySample = "inventory_sample"
	reasonLookup          = "lookup_by_id"
)

var searchStopWords = map[string]struct{}{
	"product": {},
	"item":    {},
	"search":  {},
	"find":    {},
	"looking": {},
	"want":    {},
}

// dispatch runs the handler for in. A non-nil error is always a store
// failure wrapped as *Error with Code ErrorUnavailable.
func (s *ChatService) dispatch(ctx context.Context, u domain.Utterance, in intent.Intent) (string, error) {
	switch in.Kind {
	case intent.IdentifierLookup:
		return s.lookupByID(ctx, in.Entity, in.ID)
	case intent.OrderHistory:
		userID, ok := u.CallerID()
		if !ok {
			return replyOrdersNeedIdentity, nil
		}
		return s.ordersByOwner(ctx, userID)
	case intent.InventoryQuery:
		return s.browseInventory(ctx)
	case intent.ProductSearch:
		return s.searchProducts(ctx, u.Text)
	case intent.StatusInquiry:
		return replyStatus, nil
	case intent.ReturnInquiry:
		return replyReturns, nil
	case intent.Greeting:
		return replyGreeting, nil
	}
	return replyDefault, nil
}

func (s *ChatService) lookupByID(ctx context.Context, entity domain.Entity, id int64) (string, error) {
	rec, found, err := s.store.FindByID(ctx, entity, id)
	if err != nil {
		return "", newError(ErrorUnavailable, reasonLookup, err)
	}
	if !found {
		return formatNotFound(entity, id), nil
	}
	return formatRecord(entity, id, rec), nil
}

func (s *ChatService) ordersByOwner(ctx context.Context, userID int64) (string, error) {
	orders, err := s.store.OrdersByUser(ctx, userID, resultLimit)
	if err != nil {
		return "", newError(ErrorUnavailable, reasonOrdersByUser, err)
	}
	return formatList(domain.QueryResult{Entity: domain.EntityOrder, Records: capRecords(orders, resultLimit)}), nil
}

func (s *ChatService) searchProducts(ctx context.Context, text string) (string, error) {
	terms := searchTerms(text)
	if len(terms) == 0 {
		return replyNoSearchTerms, nil
	}
	query := terms
	if len(query) > maxSearchTerms {
		query = query[:maxSearchTerms]
	}
	products, err := s.store.SearchProducts(ctx, query, resultLimit)
	if err != nil {
		return "", newError(ErrorUnavailable, reasonProductSearch, err)
	}
	if len(products) == 0 {
		return formatNoProducts(terms), nil
	}
	return formatList(domain.QueryResult{Entity: domain.EntityProduct, Records: capRecords(products, resultLimit)}), nil
}

func (s *ChatService) browseInventory(ctx context.Context) (string, error) {
	items, err := s.store.SampleInventory(ctx, resultLimit)
	if err != nil {
		return "", newError(ErrorUnavailable, reasonInventorySample, err)
	}
	return formatList(domain.QueryResult{Entity: domain.EntityInventory, Records: capRecords(items, resultLimit)}), nil
}

// searchTerms returns the lower-cased whitespace tokens of text that are
// long enough and not query-trigger words, in order of appearance.
func searchTerms(text string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) < minTermLength {
			continue
		}
		if _, stop := searchStopWords[w]; stop {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

func capRecords(records []domain.Record, limit int) []domain.Record {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}
