// Package intent decides what a customer message asks for using literal
// identifier patterns and keyword buckets.
package intent

import "commerce-chatbot/internal/domain"

// Kind is the closed set of intents a message can resolve to.
type Kind int

const (
	Unknown Kind = iota
	IdentifierLookup
	OrderHistory
	InventoryQuery
	ProductSearch
	StatusInquiry
	ReturnInquiry
	Greeting
)

var kindNames = map[Kind]string{
	Unknown:          "unknown",
	IdentifierLookup: "identifier_lookup",
	OrderHistory:     "order_history",
	InventoryQuery:   "inventory_query",
	ProductSearch:    "product_search",
	StatusInquiry:    "status_inquiry",
	ReturnInquiry:    "return_inquiry",
	Greeting:         "greeting",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Intent is the classified purpose of one message. Entity and ID are set
// only for IdentifierLookup.
type Intent struct {
	Kind   Kind
	Entity domain.Entity
	ID     int64
}

// Parse runs identifier extraction and falls back to keyword classification.
func Parse(text string) Intent {
	if in, ok := ExtractIdentifier(text); ok {
		return in
	}
	return Classify(text)
}
