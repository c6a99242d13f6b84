package intent

import "strings"

type bucket struct {
	kind     Kind
	keywords []string
}

// buckets is checked in priority order; a message matching several buckets
// takes the first one.
var buckets = []bucket{
	{OrderHistory, []string{"order", "purchase", "buy", "bought"}},
	{InventoryQuery, []string{"inventory", "inventory_item", "stock"}},
	{ProductSearch, []string{"product", "item", "search", "find"}},
	{StatusInquiry, []string{"status", "track", "tracking", "shipped", "delivered"}},
	{ReturnInquiry, []string{"return", "refund", "exchange"}},
	{Greeting, []string{"hello", "hi", "hey", "help"}},
}

// Classify buckets text by keyword containment. Matching is on substrings
// of the lower-cased text, so "stocking" counts as "stock".
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, b := range buckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return Intent{Kind: b.kind}
			}
		}
	}
	return Intent{Kind: Unknown}
}
