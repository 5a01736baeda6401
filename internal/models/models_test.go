package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartTotal(t *testing.T) {
	variants := map[string]Variant{
		"red":  {ID: "red", Price: 1500, StockQuantity: 10},
		"blue": {ID: "blue", Price: 900, StockQuantity: 1},
	}

	for _, testCase := range []struct {
		name  string
		items []CartItem
		total int64
	}{
		{name: "empty", items: nil, total: 0},
		{name: "single line", items: []CartItem{{VariantID: "red", Quantity: 2}}, total: 3000},
		{name: "two lines", items: []CartItem{{VariantID: "red", Quantity: 1}, {VariantID: "blue", Quantity: 1}}, total: 2400},
		{name: "short stock skipped", items: []CartItem{{VariantID: "red", Quantity: 1}, {VariantID: "blue", Quantity: 2}}, total: 1500},
		{name: "unknown variant skipped", items: []CartItem{{VariantID: "green", Quantity: 1}}, total: 0},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.total, CartTotal(testCase.items, variants))
		})
	}
}

func TestCartUpsertAndRemove(t *testing.T) {
	var cart Cart
	cart.Upsert(CartItem{ProductID: "p1", VariantID: "v1", Quantity: 1})
	cart.Upsert(CartItem{ProductID: "p1", VariantID: "v2", Quantity: 3})
	cart.Upsert(CartItem{ProductID: "p1", VariantID: "v1", Quantity: 5})

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	assert.True(t, cart.Remove("v1"))
	assert.False(t, cart.Remove("v1"))
	assert.Equal(t, []CartItem{{ProductID: "p1", VariantID: "v2", Quantity: 3}}, cart.Items)
}

func TestBuildCategoryTree(t *testing.T) {
	parent := func(id string) *string { return &id }
	tree := BuildCategoryTree([]Category{
		{ID: "shoes", Name: "Shoes", Type: CategoryProduct},
		{ID: "sneakers", Name: "Sneakers", Type: CategoryProduct, ParentID: parent("shoes")},
		{ID: "runners", Name: "Runners", Type: CategoryProduct, ParentID: parent("sneakers")},
		{ID: "bags", Name: "Bags", Type: CategoryProduct},
		{ID: "orphan", Name: "Orphan", Type: CategoryProduct, ParentID: parent("gone")},
	})

	require.Len(t, tree, 3)
	assert.Equal(t, "shoes", tree[0].ID)
	require.Len(t, tree[0].SubCategories, 1)
	assert.Equal(t, "sneakers", tree[0].SubCategories[0].ID)
	require.Len(t, tree[0].SubCategories[0].SubCategories, 1)
	assert.Equal(t, "runners", tree[0].SubCategories[0].SubCategories[0].ID)
	assert.Empty(t, tree[1].SubCategories)
	assert.Equal(t, "orphan", tree[2].ID)
}

func TestBlogReact(t *testing.T) {
	var blog Blog

	blog.React("a", ReactionLike)
	assert.Equal(t, []string{"a"}, blog.Likes)

	blog.React("a", ReactionDislike)
	assert.Empty(t, blog.Likes)
	assert.Equal(t, []string{"a"}, blog.Dislikes)

	blog.React("a", ReactionDislike)
	assert.Empty(t, blog.Dislikes)
}

func TestProductSummaryUsesCheapestVariant(t *testing.T) {
	p := Product{
		ID:       "p1",
		Variants: []Variant{{ID: "a", Price: 500}, {ID: "b", Price: 300}},
		Images:   []Media{{URL: "https://cdn/x.png"}},
	}
	s := p.Summary()
	assert.Equal(t, int64(300), s.FromPrice)
	require.NotNil(t, s.Image)
	assert.Equal(t, "https://cdn/x.png", s.Image.URL)
}

func TestOTPExpired(t *testing.T) {
	now := time.Now()
	var missing *OTP
	assert.True(t, missing.Expired(now))
	assert.False(t, (&OTP{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&OTP{ExpiresAt: now}).Expired(now))
}

func TestOrderStatusCanBecome(t *testing.T) {
	for _, testCase := range []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderPending, OrderPaid, true},
		{OrderShipped, OrderPending, true},
		{OrderPaid, OrderCancelled, true},
		{OrderDelivered, OrderDelivered, true},
		{OrderDelivered, OrderShipped, false},
		{OrderCancelled, OrderPending, false},
		{OrderCancelled, OrderDelivered, false},
	} {
		assert.Equal(t, testCase.allowed, testCase.from.CanBecome(testCase.to), "%s -> %s", testCase.from, testCase.to)
	}
}
