package intent

import (
	"regexp"
	"strconv"

	"commerce-chatbot/internal/domain"
)

type identifierPattern struct {
	entity domain.Entity
	re     *regexp.Regexp
}

// identifierPatterns is evaluated top to bottom and the first match wins.
// Inventory patterns come first so "inventory_item_id" text never falls
// through to a looser pattern.
var identifierPatterns = []identifierPattern{
	{domain.EntityInventory, regexp.MustCompile(`(?i)inventory_id\s*[:\s]\s*(\d+)`)},
	{domain.EntityInventory, regexp.MustCompile(`(?i)inventory[_\s]item[_\s]id\s*[:\s]\s*(\d+)`)},
	{domain.EntityProduct, regexp.MustCompile(`(?i)product_id\s*[:\s]\s*(\d+)`)},
	{domain.EntityOrder, regexp.MustCompile(`(?i)order_id\s*[:\s]\s*(\d+)`)},
	{domain.EntityUser, regexp.MustCompile(`(?i)user_id\s*[:\s]\s*(\d+)`)},
}

// ExtractIdentifier returns an IdentifierLookup intent for the first
// explicit id reference in text. A digit run that does not fit in an int64
// is skipped.
func ExtractIdentifier(text string) (Intent, bool) {
	for _, p := range identifierPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		return Intent{Kind: IdentifierLookup, Entity: p.entity, ID: id}, true
	}
	return Intent{}, false
}
