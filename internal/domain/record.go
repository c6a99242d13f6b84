package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Entity names a record type held by the store.
type Entity string

const (
	EntityUser      Entity = "user"
	EntityProduct   Entity = "product"
	EntityOrder     Entity = "order"
	EntityInventory Entity = "inventory_item"
)

// Collection returns the store collection holding records of this entity.
func (e Entity) Collection() string {
	switch e {
	case EntityUser:
		return "users"
	case EntityProduct:
		return "products"
	case EntityOrder:
		return "orders"
	case EntityInventory:
		return "inventory_items"
	}
	return ""
}

// IDField returns the presumed-unique identifier field of the entity.
func (e Entity) IDField() string {
	switch e {
	case EntityUser:
		return "user_id"
	case EntityProduct:
		return "product_id"
	case EntityOrder:
		return "order_id"
	case EntityInventory:
		return "inventory_id"
	}
	return ""
}

// Label is the human-readable name used in replies. Unknown entities read
// as "record".
func (e Entity) Label() string {
	switch e {
	case EntityInventory:
		return "inventory item"
	case EntityUser:
		return "customer"
	case EntityProduct:
		return "product"
	case EntityOrder:
		return "order"
	}
	return "record"
}

// Record is a snapshot of one stored document. Values are scalars:
// string, float64, int64, bool or nil.
type Record map[string]any

// Text returns the field rendered as text. Missing, nil and blank values
// report false.
func (r Record) Text(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		s = strconv.FormatInt(t, 10)
	case int:
		s = strconv.Itoa(t)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// Number returns the field as a float64. Numeric strings are accepted.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// QueryResult is the ordered outcome of one handler query and the input of
// the list replies.
type QueryResult struct {
	Entity  Entity
	Records []Record
}
