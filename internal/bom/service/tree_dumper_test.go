package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/wierzcho/ravacan/internal/bom/repository"
)

func TestDumpCorrectFile(t *testing.T) {
	svc, store := newTestServices(t)
	result := importCSV(t, svc, correctCSV)

	tree, err := svc.Item.GetItemTree(context.Background(), result.RootIDs[0])
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if tree.TotalCost != "1.43200" {
		t.Errorf("expected total_cost 1.43200, got %s", tree.TotalCost)
	}
	if tree.ID != "" {
		t.Errorf("expected ids to be hidden, got %s", tree.ID)
	}
	if tree.Data.Component.Identifier != "999-0001-00" || tree.Data.Quantity != "1.000" {
		t.Errorf("unexpected root data %+v", tree.Data)
	}

	if got := identifiers(tree.Children); got != "800-0001-00" {
		t.Fatalf("unexpected level 1 children %s", got)
	}
	level2 := tree.Children[0].Children
	if got := identifiers(level2); got != "700-0001-00,100-0004-00" {
		t.Fatalf("unexpected level 2 children %s", got)
	}
	if got := identifiers(level2[0].Children); got != "100-0001-00,100-0002-00,100-0003-00" {
		t.Errorf("unexpected level 3 children %s", got)
	}
	if level2[0].Children[2].Data.Quantity != "0.550" {
		t.Errorf("expected quantity 0.550, got %s", level2[0].Children[2].Data.Quantity)
	}
	if level2[1].Data.Component.Price != "0.60" {
		t.Errorf("expected price 0.60, got %s", level2[1].Data.Component.Price)
	}

	nodes, _ := store.Subtree(context.Background(), nil)
	if len(nodes) != 7 {
		t.Errorf("expected 7 nodes, got %d", len(nodes))
	}
}

func TestDumpSubtreeCost(t *testing.T) {
	svc, store := newTestServices(t)
	importCSV(t, svc, correctCSV)
	// 第二个BOM的中间层带单价，用于确认非根子树计入自身行金额
	importCSV(t, svc, csvHeader+"0,R,root,,EA,MTS,2,7\n1,M,middle,,EA,MTS,2,0.5\n2,L,leaf,,EA,MTB,3,0.25\n")

	tests := []struct {
		identifier string
		total      string
		children   int
	}{
		{"700-0001-00", "0.76000", 3},
		{"800-0001-00", "1.43200", 2},
		{"100-0002-00", "0.11000", 0},
		{"100-0003-00", "0.33000", 0},
		{"R", "1.75000", 1},
		{"M", "1.75000", 1},
		{"L", "0.75000", 0},
	}
	for _, tt := range tests {
		node := findByIdentifier(t, store, tt.identifier)
		tree, err := svc.Item.GetItemTree(context.Background(), node.ID)
		if err != nil {
			t.Fatalf("%s: %v", tt.identifier, err)
		}
		if tree.TotalCost != tt.total {
			t.Errorf("%s: expected %s, got %s", tt.identifier, tt.total, tree.TotalCost)
		}
		if len(tree.Children) != tt.children {
			t.Errorf("%s: expected %d children, got %d", tt.identifier, tt.children, len(tree.Children))
		}
	}
}

func TestDumpTwoRowExample(t *testing.T) {
	svc, _ := newTestServices(t)
	result := importCSV(t, svc, csvHeader+"0,A,nameA,,EA,MTS,1,\n1,B,nameB,,EA,MTS,1,0.32\n")

	tree, err := svc.Item.GetItemTree(context.Background(), result.RootIDs[0])
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if tree.TotalCost != "0.32000" {
		t.Errorf("expected 0.32000, got %s", tree.TotalCost)
	}

	data, _ := json.Marshal(tree)
	var doc map[string]interface{}
	json.Unmarshal(data, &doc)
	for _, key := range []string{"total_cost", "data", "children"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("expected key %s in %s", key, data)
		}
	}
	if _, ok := doc["id"]; ok {
		t.Errorf("expected no id in %s", data)
	}
	leaf := doc["children"].([]interface{})[0].(map[string]interface{})
	if _, ok := leaf["children"]; ok {
		t.Errorf("leaf must not carry children: %v", leaf)
	}
}

func TestDumpForest(t *testing.T) {
	svc, _ := newTestServices(t)

	empty, err := svc.Item.GetForest(context.Background(), true)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if empty.TotalCost != "0" || len(empty.Items) != 0 {
		t.Errorf("unexpected empty forest %+v", empty)
	}

	importCSV(t, svc, correctCSV)
	importCSV(t, svc, csvHeader+"0,A,nameA,,EA,MTS,1,5\n1,B,nameB,,EA,MTS,2,0.25\n")

	forest, err := svc.Item.GetForest(context.Background(), true)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if len(forest.Items) != 2 {
		t.Fatalf("expected 2 trees, got %d", len(forest.Items))
	}
	if forest.TotalCost != "1.93200" {
		t.Errorf("expected 1.93200, got %s", forest.TotalCost)
	}
	if forest.Items[0].ID == "" {
		t.Error("expected ids to be kept")
	}
	if got := identifiers(forest.Items); got != "999-0001-00,A" {
		t.Errorf("unexpected forest order %s", got)
	}
}

func TestDumpUnknownNode(t *testing.T) {
	svc, _ := newTestServices(t)
	_, err := svc.Item.GetItemTree(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// memCache 测试用缓存
type memCache struct {
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dst any) bool {
	raw, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *memCache) Set(ctx context.Context, key string, v any) {
	raw, _ := json.Marshal(v)
	c.data[key] = raw
}

func (c *memCache) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		delete(c.data, key)
		c.deleted = append(c.deleted, key)
	}
}

func TestDumpCache(t *testing.T) {
	store := repository.NewMemoryStore()
	cache := newMemCache()
	svc := NewServices(store, cache, nil, nil)
	result := importCSV(t, svc, correctCSV)

	first, err := svc.Item.GetItemTree(context.Background(), result.RootIDs[0])
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if _, ok := cache.data[itemCacheKey(result.RootIDs[0])]; !ok {
		t.Fatal("expected item tree to be cached")
	}
	second, err := svc.Item.GetItemTree(context.Background(), result.RootIDs[0])
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if second.TotalCost != first.TotalCost || identifiers(second.Children) != identifiers(first.Children) {
		t.Errorf("cached tree differs: %+v vs %+v", second, first)
	}

	if _, err := svc.Item.GetForest(context.Background(), false); err != nil {
		t.Fatalf("forest: %v", err)
	}
	importCSV(t, svc, csvHeader+"0,A,nameA,,EA,MTS,1,\n")
	if _, ok := cache.data[forestCacheKey(false)]; ok {
		t.Error("expected forest cache to be invalidated by import")
	}
	forest, _ := svc.Item.GetForest(context.Background(), false)
	if len(forest.Items) != 2 {
		t.Errorf("expected 2 trees after second import, got %d", len(forest.Items))
	}
}
