package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"commerce-chatbot/internal/domain"
)

const (
	// maxSearchPages bounds the product scan so a miss never reads the
	// whole table.
	maxSearchPages = 20

	DefaultOrdersByUserIndex = "user_id-created_at-index"
)

var productSearchFields = []string{"name", "brand", "category", "department"}

// Tables maps store collections to DynamoDB table names.
type Tables struct {
	Users               string
	Products            string
	Orders              string
	InventoryItems      string
	OrderItems          string
	DistributionCenters string
	// OrdersByUserIndex is a GSI on Orders keyed by user_id with created_at
	// as sort key.
	OrdersByUserIndex string
}

func (t Tables) byCollection(collection string) string {
	switch collection {
	case "users":
		return t.Users
	case "products":
		return t.Products
	case "orders":
		return t.Orders
	case "inventory_items":
		return t.InventoryItems
	case "order_items":
		return t.OrderItems
	case "distribution_centers":
		return t.DistributionCenters
	}
	return ""
}

// RecordClient serves read-only record queries from DynamoDB tables.
type RecordClient struct {
	api    dynamodbAPI
	tables Tables
}

// NewRecordClient creates a RecordClient. Every table the chat handlers
// query must be named.
func NewRecordClient(api dynamodbAPI, tables Tables) (*RecordClient, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	for name, v := range map[string]string{
		"users":           tables.Users,
		"products":        tables.Products,
		"orders":          tables.Orders,
		"inventory_items": tables.InventoryItems,
	} {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("repository: %s table name must not be empty", name)
		}
	}
	if strings.TrimSpace(tables.OrdersByUserIndex) == "" {
		tables.OrdersByUserIndex = DefaultOrdersByUserIndex
	}
	return &RecordClient{api: api, tables: tables}, nil
}

// FindByID fetches the single record whose id field equals id.
func (c *RecordClient) FindByID(ctx context.Context, entity domain.Entity, id int64) (domain.Record, bool, error) {
	table := c.tables.byCollection(entity.Collection())
	if table == "" {
		return nil, false, fmt.Errorf("repository: FindByID: unknown entity %q", entity)
	}
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			entity.IDField(): numberAttr(id),
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("repository: FindByID %s: %w", entity, err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, false, nil
	}
	return itemToRecord(out.Item), true, nil
}

// OrdersByUser returns the newest orders of a user.
func (c *RecordClient) OrdersByUser(ctx context.Context, userID int64, limit int) ([]domain.Record, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tables.Orders),
		IndexName:              aws.String(c.tables.OrdersByUserIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": numberAttr(userID),
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: OrdersByUser query: %w", err)
	}
	return itemsToRecords(out.Items, limit), nil
}

// SearchProducts returns products where any term is a case-insensitive
// substring of name, brand, category or department. It scans at most
// maxSearchPages pages of the table, so on a large table a product past that
// point is not found and the result may be shorter than limit or empty.
func (c *RecordClient) SearchProducts(ctx context.Context, terms []string, limit int) ([]domain.Record, error) {
	needles := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			needles = append(needles, t)
		}
	}
	if len(needles) == 0 || limit <= 0 {
		return nil, nil
	}

	var (
		found    []domain.Record
		startKey map[string]types.AttributeValue
	)
	for page := 0; page < maxSearchPages; page++ {
		out, err := c.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(c.tables.Products),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: SearchProducts scan: %w", err)
		}
		for _, item := range out.Items {
			rec := itemToRecord(item)
			if matchesAny(rec, needles) {
				found = append(found, rec)
				if len(found) == limit {
					return found, nil
				}
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return found, nil
}

// SampleInventory returns up to limit inventory items in table order.
func (c *RecordClient) SampleInventory(ctx context.Context, limit int) ([]domain.Record, error) {
	out, err := c.api.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(c.tables.InventoryItems),
		Limit:     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: SampleInventory scan: %w", err)
	}
	return itemsToRecords(out.Items, limit), nil
}

// Count returns the approximate item count DynamoDB reports for the
// collection's table. Unconfigured collections count as zero.
func (c *RecordClient) Count(ctx context.Context, collection string) (int64, error) {
	table := c.tables.byCollection(collection)
	if table == "" {
		return 0, nil
	}
	out, err := c.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		return 0, fmt.Errorf("repository: Count %s: %w", collection, err)
	}
	if out == nil || out.Table == nil || out.Table.ItemCount == nil {
		return 0, nil
	}
	return *out.Table.ItemCount, nil
}

func itemsToRecords(items []map[string]types.AttributeValue, limit int) []domain.Record {
	if len(items) > limit {
		items = items[:limit]
	}
	recs := make([]domain.Record, 0, len(items))
	for _, item := range items {
		recs = append(recs, itemToRecord(item))
	}
	return recs
}

func matchesAny(rec domain.Record, needles []string) bool {
	for _, field := range productSearchFields {
		v, ok := rec.Text(field)
		if !ok {
			continue
		}
		v = strings.ToLower(v)
		for _, n := range needles {
			if strings.Contains(v, n) {
				return true
			}
		}
	}
	return false
}
