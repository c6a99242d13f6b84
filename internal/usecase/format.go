package usecase

import (
	"fmt"
	"strings"

	"commerce-chatbot/internal/domain"
)

const placeholder = "N/A"

const (
	replyGenericError = "I'm sorry, I encountered an error. Please try again."

	replyOrdersNeedIdentity = "I can help you with your orders! Please provide your user ID or email to look up your order history."
	replyNoOrders           = "I couldn't find any orders for your account. If you believe this is an error, please contact our support team."
	replyNoSearchTerms      = "I can help you find products! Please tell me what you're looking for - for example, 'shoes', 'electronics', or a specific brand name."
	replyNoInventory        = "I couldn't find any inventory items right now."
	replyStatus             = "I can help you track your order status. Please provide your order ID or let me know which recent order you'd like to check."
	replyReturns            = "I can assist you with returns and refunds. Our return policy allows returns within 30 days of delivery. Would you like me to help you initiate a return?"
	replyGreeting           = "Hello! I'm your customer service assistant. I can help you with orders, product information, tracking, returns, and more. How can I assist you today?"
	replyDefault            = "I'm here to help! I can assist you with orders, product searches, order tracking, returns, and general customer service questions. What would you like to know?"

	inventoryHint = "Tip: ask about a specific item with \"inventory_id: <number>\" to see its full details."
)

// apologies maps a failed handler to the reply shown instead of its result.
var apologies = map[string]string{
	reasonOrdersByUser:    "I'm having trouble accessing your order information right now. Please try again in a moment.",
	reasonProductSearch:   "I'm having trouble searching for products right now. Please try again in a moment.",
	reasonInventorySample: "I'm having trouble accessing our inventory right now. Please try again in a moment.",
	reasonLookup:          "I'm having trouble looking up that record right now. Please try again in a moment.",
}

func apologyFor(reason string) string {
	if s, ok := apologies[reason]; ok {
		return s
	}
	return replyGenericError
}

func formatNotFound(entity domain.Entity, id int64) string {
	return fmt.Sprintf("I couldn't find %s with ID %d. Please check the ID and try again.", withArticle(entity.Label()), id)
}

func withArticle(noun string) string {
	if noun != "" && strings.ContainsRune("aeiou", rune(noun[0])) {
		return "an " + noun
	}
	return "a " + noun
}

// formatList renders the list reply for res. Inventory lists always carry
// the lookup hint, even when empty.
func formatList(res domain.QueryResult) string {
	switch res.Entity {
	case domain.EntityOrder:
		if len(res.Records) == 0 {
			return replyNoOrders
		}
		return formatOrderList(res.Records)
	case domain.EntityProduct:
		return formatProductList(res.Records)
	case domain.EntityInventory:
		return formatInventoryList(res.Records)
	}
	return replyGenericError
}

func formatOrderList(records []domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d recent order(s) for you:\n\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "• Order #%s: %s - %s item(s) - Placed on %s\n",
			textOr(r, "order_id", placeholder),
			textOr(r, "status", "Unknown"),
			textOr(r, "num_of_item", "0"),
			textOr(r, "created_at", "Unknown"),
		)
	}
	b.WriteString("\nWould you like more details about any specific order?")
	return b.String()
}

func formatProductList(records []domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d product(s) matching your search:\n\n", len(records))
	for _, r := range records {
		price, _ := r.Number("retail_price")
		fmt.Fprintf(&b, "• %s by %s - $%.2f (%s)\n",
			textOr(r, "name", "Unknown"),
			textOr(r, "brand", "Unknown"),
			price,
			textOr(r, "category", "Unknown"),
		)
	}
	b.WriteString("\nWould you like more details about any of these products?")
	return b.String()
}

func formatNoProducts(terms []string) string {
	return fmt.Sprintf("I couldn't find any products matching '%s'. Try different keywords or browse our categories.", strings.Join(terms, " "))
}

func formatInventoryList(records []domain.Record) string {
	if len(records) == 0 {
		return replyNoInventory + "\n\n" + inventoryHint
	}
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d inventory item(s) for you:\n\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "• Inventory #%s: %s by %s - %s (%s)\n",
			textOr(r, "inventory_id", placeholder),
			textOr(r, "product_name", placeholder),
			textOr(r, "product_brand", placeholder),
			money(r, "product_retail_price"),
			inventoryStatus(r),
		)
	}
	b.WriteString("\nWould you like more details about any of these items?\n\n")
	b.WriteString(inventoryHint)
	return b.String()
}

func formatRecord(entity domain.Entity, id int64, r domain.Record) string {
	switch entity {
	case domain.EntityInventory:
		return formatInventoryItem(id, r)
	case domain.EntityProduct:
		return formatProduct(id, r)
	case domain.EntityOrder:
		return formatOrder(id, r)
	case domain.EntityUser:
		return formatUser(id, r)
	}
	return replyGenericError
}

func formatInventoryItem(id int64, r domain.Record) string {
	return lines(
		detailsHeader(domain.EntityInventory, id),
		"",
		bullet("Product", textOr(r, "product_name", placeholder)),
		bullet("Brand", textOr(r, "product_brand", placeholder)),
		bullet("Category", textOr(r, "product_category", placeholder)),
		bullet("Department", textOr(r, "product_department", placeholder)),
		bullet("SKU", textOr(r, "product_sku", placeholder)),
		bullet("Cost", money(r, "cost")),
		bullet("Retail Price", money(r, "product_retail_price")),
		bullet("Product ID", textOr(r, "product_id", placeholder)),
		bullet("Distribution Center", textOr(r, "product_distribution_center_id", placeholder)),
		bullet("Status", inventoryStatus(r)),
		bullet("Added On", textOr(r, "created_at", placeholder)),
	)
}

func formatProduct(id int64, r domain.Record) string {
	return lines(
		detailsHeader(domain.EntityProduct, id),
		"",
		bullet("Name", textOr(r, "name", placeholder)),
		bullet("Brand", textOr(r, "brand", placeholder)),
		bullet("Category", textOr(r, "category", placeholder)),
		bullet("Department", textOr(r, "department", placeholder)),
		bullet("Cost", money(r, "cost")),
		bullet("Retail Price", money(r, "retail_price")),
		bullet("SKU", textOr(r, "sku", placeholder)),
		bullet("Distribution Center", textOr(r, "distribution_center_id", placeholder)),
	)
}

func formatOrder(id int64, r domain.Record) string {
	out := []string{
		detailsHeader(domain.EntityOrder, id),
		"",
		bullet("Status", textOr(r, "status", placeholder)),
		bullet("Customer ID", textOr(r, "user_id", placeholder)),
		bullet("Items", textOr(r, "num_of_item", placeholder)),
		bullet("Placed On", textOr(r, "created_at", placeholder)),
	}
	// The only optional lines in any template.
	for _, opt := range []struct{ field, label string }{
		{"shipped_at", "Shipped On"},
		{"delivered_at", "Delivered On"},
		{"returned_at", "Returned On"},
	} {
		if v, ok := r.Text(opt.field); ok {
			out = append(out, bullet(opt.label, v))
		}
	}
	return lines(out...)
}

func formatUser(id int64, r domain.Record) string {
	return lines(
		detailsHeader(domain.EntityUser, id),
		"",
		bullet("Name", joined(r, " ", "first_name", "last_name")),
		bullet("Email", textOr(r, "email", placeholder)),
		bullet("Age", textOr(r, "age", placeholder)),
		bullet("Gender", textOr(r, "gender", placeholder)),
		bullet("Location", joined(r, ", ", "city", "state")),
		bullet("Country", textOr(r, "country", placeholder)),
		bullet("Traffic Source", textOr(r, "traffic_source", placeholder)),
		bullet("Member Since", textOr(r, "created_at", placeholder)),
	)
}

func detailsHeader(entity domain.Entity, id int64) string {
	return fmt.Sprintf("Here are the details for %s #%d:", entity.Label(), id)
}

func inventoryStatus(r domain.Record) string {
	if soldAt, ok := r.Text("sold_at"); ok {
		return "Sold on " + soldAt
	}
	return "Available"
}

func textOr(r domain.Record, field, fallback string) string {
	if v, ok := r.Text(field); ok {
		return v
	}
	return fallback
}

func money(r domain.Record, field string) string {
	if n, ok := r.Number(field); ok {
		return fmt.Sprintf("$%.2f", n)
	}
	return placeholder
}

// joined renders the present fields joined by sep, or the placeholder when
// none are present.
func joined(r domain.Record, sep string, fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if v, ok := r.Text(f); ok {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return placeholder
	}
	return strings.Join(parts, sep)
}

func bullet(label, value string) string {
	return "• " + label + ": " + value
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}
