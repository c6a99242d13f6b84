package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"commerce-chatbot/internal/domain"
)

type fakeDynamo struct {
	getOut      *dynamodb.GetItemOutput
	getErr      error
	putErr      error
	queryOut    *dynamodb.QueryOutput
	queryErr    error
	scanPages   []*dynamodb.ScanOutput
	scanErr     error
	describeOut *dynamodb.DescribeTableOutput
	describeErr error

	lastGetInput      *dynamodb.GetItemInput
	lastPutInput      *dynamodb.PutItemInput
	lastQueryIn       *dynamodb.QueryInput
	scanInputs        []*dynamodb.ScanInput
	lastDescribeInput *dynamodb.DescribeTableInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanInputs = append(f.scanInputs, in)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	i := len(f.scanInputs) - 1
	if i >= len(f.scanPages) {
		return &dynamodb.ScanOutput{}, nil
	}
	return f.scanPages[i], nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.lastDescribeInput = in
	return f.describeOut, f.describeErr
}

func testTables() Tables {
	return Tables{
		Users:          "users",
		Products:       "products",
		Orders:         "orders",
		InventoryItems: "inventory_items",
		OrderItems:     "order_items",
	}
}

func mustNewRecordClient(t *testing.T, db *fakeDynamo) *RecordClient {
	t.Helper()
	c, err := NewRecordClient(db, testTables())
	require.NoError(t, err)
	return c
}

func productItem(name, brand, category, department string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"name":         &types.AttributeValueMemberS{Value: name},
		"brand":        &types.AttributeValueMemberS{Value: brand},
		"category":     &types.AttributeValueMemberS{Value: category},
		"department":   &types.AttributeValueMemberS{Value: department},
		"retail_price": &types.AttributeValueMemberN{Value: "49.99"},
	}
}

func TestNewRecordClient_Validates(t *testing.T) {
	_, err := NewRecordClient(nil, testTables())
	require.Error(t, err)

	tables := testTables()
	tables.Orders = " "
	_, err = NewRecordClient(&fakeDynamo{}, tables)
	require.Error(t, err)
	require.Contains(t, err.Error(), "orders")

	c := mustNewRecordClient(t, &fakeDynamo{})
	require.Equal(t, DefaultOrdersByUserIndex, c.tables.OrdersByUserIndex)
}

func TestFindByID_HappyPath(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"inventory_id": &types.AttributeValueMemberN{Value: "67971"},
		"cost":         &types.AttributeValueMemberN{Value: "12.5"},
		"product_name": &types.AttributeValueMemberS{Value: "Cap"},
		"sold_at":      &types.AttributeValueMemberNULL{Value: true},
		"tags":         &types.AttributeValueMemberSS{Value: []string{"a"}},
	}}}
	c := mustNewRecordClient(t, db)

	rec, found, err := c.FindByID(context.Background(), domain.EntityInventory, 67971)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(67971), rec["inventory_id"])
	require.Equal(t, 12.5, rec["cost"])
	require.Equal(t, "Cap", rec["product_name"])
	require.Nil(t, rec["sold_at"])
	require.NotContains(t, rec, "tags")

	require.Equal(t, "inventory_items", *db.lastGetInput.TableName)
	require.Equal(t, "67971", db.lastGetInput.Key["inventory_id"].(*types.AttributeValueMemberN).Value)
}

func TestFindByID_NotFound(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	c := mustNewRecordClient(t, db)

	_, found, err := c.FindByID(context.Background(), domain.EntityUser, 5)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, "users", *db.lastGetInput.TableName)
}

func TestFindByID_Errors(t *testing.T) {
	db := &fakeDynamo{getErr: errors.New("RequestTimeout")}
	c := mustNewRecordClient(t, db)

	_, _, err := c.FindByID(context.Background(), domain.EntityOrder, 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "FindByID")

	_, _, err = c.FindByID(context.Background(), domain.Entity("bogus"), 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown entity")
}

func TestOrdersByUser_QueriesIndexNewestFirst(t *testing.T) {
	items := make([]map[string]types.AttributeValue, 0, 7)
	for i := 0; i < 7; i++ {
		items = append(items, map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberN{Value: fmt.Sprint(i)},
		})
	}
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: items}}
	c := mustNewRecordClient(t, db)

	recs, err := c.OrdersByUser(context.Background(), 42, 5)
	require.NoError(t, err)
	require.Len(t, recs, 5)

	in := db.lastQueryIn
	require.Equal(t, "orders", *in.TableName)
	require.Equal(t, DefaultOrdersByUserIndex, *in.IndexName)
	require.Equal(t, "user_id = :uid", *in.KeyConditionExpression)
	require.Equal(t, "42", in.ExpressionAttributeValues[":uid"].(*types.AttributeValueMemberN).Value)
	require.False(t, *in.ScanIndexForward)
	require.Equal(t, int32(5), *in.Limit)
}

func TestOrdersByUser_QueryError(t *testing.T) {
	db := &fakeDynamo{queryErr: errors.New("boom")}
	c := mustNewRecordClient(t, db)
	_, err := c.OrdersByUser(context.Background(), 42, 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "OrdersByUser")
}

func TestSearchProducts_MatchesAnyFieldCaseInsensitively(t *testing.T) {
	db := &fakeDynamo{scanPages: []*dynamodb.ScanOutput{
		{
			Items: []map[string]types.AttributeValue{
				productItem("Trail Runner", "Acme", "Shoes", "Men"),
				productItem("Wool Scarf", "Acme", "Accessories", "Women"),
			},
			LastEvaluatedKey: map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberN{Value: "2"}},
		},
		{
			Items: []map[string]types.AttributeValue{
				productItem("Denim", "Levi's", "Jeans", "Men"),
				productItem("Cap", "RUNNING Co", "Hats", "Women"),
			},
		},
	}}
	c := mustNewRecordClient(t, db)

	recs, err := c.SearchProducts(context.Background(), []string{"runn", "jeans"}, 5)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "Trail Runner", recs[0]["name"])
	require.Equal(t, "Denim", recs[1]["name"])
	require.Equal(t, "Cap", recs[2]["name"])

	require.Len(t, db.scanInputs, 2)
	require.Nil(t, db.scanInputs[0].ExclusiveStartKey)
	require.Equal(t, "2", db.scanInputs[1].ExclusiveStartKey["product_id"].(*types.AttributeValueMemberN).Value)
}

func TestSearchProducts_StopsAtLimit(t *testing.T) {
	items := make([]map[string]types.AttributeValue, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, productItem(fmt.Sprintf("Shoe %d", i), "Acme", "Shoes", "Men"))
	}
	db := &fakeDynamo{scanPages: []*dynamodb.ScanOutput{{
		Items:            items,
		LastEvaluatedKey: map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberN{Value: "9"}},
	}}}
	c := mustNewRecordClient(t, db)

	recs, err := c.SearchProducts(context.Background(), []string{"shoe"}, 5)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	require.Len(t, db.scanInputs, 1)
}

func TestSearchProducts_PageBudget(t *testing.T) {
	pages := make([]*dynamodb.ScanOutput, 0, maxSearchPages+5)
	for i := 0; i < maxSearchPages+5; i++ {
		pages = append(pages, &dynamodb.ScanOutput{
			Items:            []map[string]types.AttributeValue{productItem("Hat", "Acme", "Hats", "Men")},
			LastEvaluatedKey: map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberN{Value: fmt.Sprint(i)}},
		})
	}
	db := &fakeDynamo{scanPages: pages}
	c := mustNewRecordClient(t, db)

	recs, err := c.SearchProducts(context.Background(), []string{"sneaker"}, 5)
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Len(t, db.scanInputs, maxSearchPages)
}

func TestSearchProducts_MatchPastBudgetIsMissed(t *testing.T) {
	pages := make([]*dynamodb.ScanOutput, 0, maxSearchPages+1)
	for i := 0; i <= maxSearchPages; i++ {
		item := productItem("Hat", "Acme", "Hats", "Men")
		if i == maxSearchPages {
			item = productItem("Court Sneaker", "Acme", "Shoes", "Men")
		}
		pages = append(pages, &dynamodb.ScanOutput{
			Items:            []map[string]types.AttributeValue{item},
			LastEvaluatedKey: map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberN{Value: fmt.Sprint(i)}},
		})
	}
	db := &fakeDynamo{scanPages: pages}
	c := mustNewRecordClient(t, db)

	recs, err := c.SearchProducts(context.Background(), []string{"sneaker"}, 5)
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Len(t, db.scanInputs, maxSearchPages)
}

func TestSearchProducts_NoTermsSkipsScan(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewRecordClient(t, db)

	recs, err := c.SearchProducts(context.Background(), []string{" "}, 5)
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Empty(t, db.scanInputs)
}

func TestSearchProducts_ScanError(t *testing.T) {
	db := &fakeDynamo{scanErr: errors.New("boom")}
	c := mustNewRecordClient(t, db)
	_, err := c.SearchProducts(context.Background(), []string{"shoe"}, 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SearchProducts")
}

func TestSampleInventory(t *testing.T) {
	db := &fakeDynamo{scanPages: []*dynamodb.ScanOutput{{Items: []map[string]types.AttributeValue{
		{"inventory_id": &types.AttributeValueMemberN{Value: "1"}},
		{"inventory_id": &types.AttributeValueMemberN{Value: "2"}},
	}}}}
	c := mustNewRecordClient(t, db)

	recs, err := c.SampleInventory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "inventory_items", *db.scanInputs[0].TableName)
	require.Equal(t, int32(5), *db.scanInputs[0].Limit)
}

func TestCount(t *testing.T) {
	db := &fakeDynamo{describeOut: &dynamodb.DescribeTableOutput{Table: &types.TableDescription{ItemCount: aws.Int64(1234)}}}
	c := mustNewRecordClient(t, db)

	n, err := c.Count(context.Background(), "order_items")
	require.NoError(t, err)
	require.Equal(t, int64(1234), n)
	require.Equal(t, "order_items", *db.lastDescribeInput.TableName)

	// distribution_centers is not configured in testTables.
	db.lastDescribeInput = nil
	n, err = c.Count(context.Background(), "distribution_centers")
	require.NoError(t, err)
	require.Zero(t, n)
	require.Nil(t, db.lastDescribeInput)

	db.describeErr = errors.New("boom")
	_, err = c.Count(context.Background(), "products")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Count products")
}
