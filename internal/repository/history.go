package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"commerce-chatbot/internal/domain"
)

const (
	pkPrefixSession = "SESSION#"
	skPrefixMsg     = "MSG#"
	ttlDuration     = 30 * 24 * time.Hour // 30-day TTL
	// Fixed-width so sort keys order lexicographically by time.
	skTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

// HistoryClient stores chat exchanges in a single DynamoDB table keyed by
// session.
type HistoryClient struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// NewHistoryClient creates a HistoryClient for tableName.
func NewHistoryClient(api dynamodbAPI, tableName string) (*HistoryClient, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &HistoryClient{api: api, tableName: tableName, now: time.Now}, nil
}

// sessionPK returns the DynamoDB partition key for a session.
func sessionPK(sessionID string) string {
	return pkPrefixSession + sessionID
}

// exchangeSK orders exchanges by creation time; the id suffix keeps
// concurrent writes in the same nanosecond distinct.
func exchangeSK(ts time.Time, id string) string {
	return skPrefixMsg + ts.UTC().Format(skTimeLayout) + "#" + id
}

// SaveExchange appends one exchange. Existing keys are never overwritten.
func (c *HistoryClient) SaveExchange(ctx context.Context, ex domain.Exchange) error {
	if ex.SessionID == "" || ex.ID == "" {
		return errors.New("repository: SaveExchange: session id and exchange id are required")
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = c.now().UTC()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                c.exchangeItem(ex),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveExchange: %w", err)
	}
	return nil
}

// RecentExchanges returns the latest limit exchanges of a session in
// chronological order.
func (c *HistoryClient) RecentExchanges(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		// Read newest first so LIMIT keeps the most recent exchanges.
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: RecentExchanges query: %w", err)
	}

	exchanges := make([]domain.Exchange, 0, len(out.Items))
	for _, item := range out.Items {
		ex, err := itemToExchange(item)
		if err != nil {
			return nil, fmt.Errorf("repository: RecentExchanges unmarshal: %w", err)
		}
		exchanges = append(exchanges, ex)
	}
	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}
	return exchanges, nil
}

func (c *HistoryClient) exchangeItem(ex domain.Exchange) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: sessionPK(ex.SessionID)},
		"SK":           &types.AttributeValueMemberS{Value: exchangeSK(ex.CreatedAt, ex.ID)},
		"id":           &types.AttributeValueMemberS{Value: ex.ID},
		"session_id":   &types.AttributeValueMemberS{Value: ex.SessionID},
		"user_message": &types.AttributeValueMemberS{Value: ex.UserMessage},
		"bot_response": &types.AttributeValueMemberS{Value: ex.BotResponse},
		"timestamp":    &types.AttributeValueMemberS{Value: ex.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":          numberAttr(c.now().Add(ttlDuration).Unix()),
	}
	if ex.UserID != nil {
		item["user_id"] = numberAttr(*ex.UserID)
	}
	return item
}

func itemToExchange(item map[string]types.AttributeValue) (domain.Exchange, error) {
	sessionID, err := strAttr(item, "session_id")
	if err != nil {
		return domain.Exchange{}, err
	}
	message, err := strAttr(item, "user_message")
	if err != nil {
		return domain.Exchange{}, err
	}
	ts, err := strAttr(item, "timestamp")
	if err != nil {
		return domain.Exchange{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("repository: parse timestamp: %w", err)
	}
	id, _ := strAttr(item, "id")                // allow empty
	response, _ := strAttr(item, "bot_response") // allow empty

	ex := domain.Exchange{
		ID:          id,
		SessionID:   sessionID,
		UserMessage: message,
		BotResponse: response,
		CreatedAt:   createdAt,
	}
	if _, ok := item["user_id"]; ok {
		userID, err := int64Attr(item, "user_id")
		if err != nil {
			return domain.Exchange{}, err
		}
		ex.UserID = &userID
	}
	return ex, nil
}
