package s3

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantara/paramvec/blobstore"
)

// fakeDDBClient is an in-memory DynamoDB stand-in.
type fakeDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // baseURI:version -> item
}

func newFakeDDBClient() *fakeDDBClient {
	return &fakeDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *fakeDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *fakeDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	baseURI := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == baseURI {
			items = append(items, item)
		}
	}
	// Sort by version descending, mirroring ScanIndexForward=false.
	sort.Slice(items, func(i, j int) bool {
		vi := items[i]["version"].(*types.AttributeValueMemberN).Value
		vj := items[j]["version"].(*types.AttributeValueMemberN).Value
		if len(vi) != len(vj) {
			return len(vi) > len(vj)
		}
		return vi > vj
	})
	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func TestPointerStore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemory()
	ps := NewPointerStore(store, newFakeDDBClient(), "paramvec-snapshots", "s3://bucket/models")

	_, err := ps.Latest(ctx)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, ps.Commit(ctx, "snap-001"))
	name, err := ps.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snap-001", name)

	require.NoError(t, ps.Commit(ctx, "snap-002"))
	name, err = ps.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snap-002", name)
}

// staleQueryClient hides committed versions from Query, forcing a writer to
// pick a version another writer already took.
type staleQueryClient struct {
	*fakeDDBClient
}

func (c *staleQueryClient) Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func TestPointerStoreConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDBClient()
	ps1 := NewPointerStore(blobstore.NewMemory(), ddb, "tbl", "s3://bucket/models")
	require.NoError(t, ps1.Commit(ctx, "a"))

	// A writer with a stale read of the version history computes version 1,
	// which ps1 already took; its conditional put must lose.
	stale := NewPointerStore(blobstore.NewMemory(), &staleQueryClient{ddb}, "tbl", "s3://bucket/models")
	err := stale.Commit(ctx, "b")
	assert.ErrorIs(t, err, ErrConcurrentCommit)

	// A fresh commit sees version 1 and lands on 2.
	ps2 := NewPointerStore(blobstore.NewMemory(), ddb, "tbl", "s3://bucket/models")
	require.NoError(t, ps2.Commit(ctx, "c"))
	name, err := ps2.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", name)
}
