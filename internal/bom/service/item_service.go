package service

import (
	"context"
	"time"

	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/wierzcho/ravacan/internal/bom/metrics"
	"github.com/wierzcho/ravacan/internal/bom/repository"
	"go.uber.org/zap"
)

// ItemSummary 顶层物料列表项
type ItemSummary struct {
	ID        string        `json:"id"`
	Component ComponentView `json:"component"`
	Depth     int           `json:"depth"`
	Quantity  string        `json:"quantity"`
}

// ItemService BOM查询服务
type ItemService struct {
	store  repository.Store
	cache  Cache
	dumper *TreeDumper
	logger *zap.Logger
}

// NewItemService 创建查询服务
func NewItemService(store repository.Store, cache Cache, logger *zap.Logger) *ItemService {
	return &ItemService{
		store:  store,
		cache:  cache,
		dumper: NewTreeDumper(),
		logger: logger,
	}
}

func itemCacheKey(id string) string {
	return "bom:item:" + id
}

func forestCacheKey(keepIDs bool) string {
	if keepIDs {
		return "bom:forest:ids"
	}
	return "bom:forest"
}

// ListItems 分页获取顶层物料
func (s *ItemService) ListItems(ctx context.Context, page, pageSize int) ([]ItemSummary, int64, error) {
	roots, total, err := s.store.ListRoots(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ItemSummary, 0, len(roots))
	for i := range roots {
		data := nodeData(&roots[i])
		items = append(items, ItemSummary{
			ID:        roots[i].ID,
			Component: data.Component,
			Depth:     roots[i].Depth,
			Quantity:  data.Quantity,
		})
	}
	return items, total, nil
}

// GetItemTree 展开单个节点的子树（不含ID）。
// 已创建的子树不再变化，结果按节点ID缓存。
func (s *ItemService) GetItemTree(ctx context.Context, id string) (*ItemTree, error) {
	start := time.Now()
	key := itemCacheKey(id)

	if s.cache != nil {
		var cached ItemTree
		if s.cache.Get(ctx, key, &cached) {
			metrics.RecordDump("item", true, time.Since(start))
			return &cached, nil
		}
	}

	root, err := s.store.FindNode(ctx, id)
	if err != nil {
		return nil, err
	}
	dump, err := s.dumper.Dump(ctx, s.store, root, false)
	if err != nil {
		return nil, err
	}
	tree := dump.Item()

	if s.cache != nil {
		s.cache.Set(ctx, key, tree)
	}
	metrics.RecordDump("item", false, time.Since(start))
	s.logger.Debug("item tree dumped",
		zap.String("id", id),
		zap.Int("nodes", dump.NodeCount),
		zap.String("total_cost", tree.TotalCost))
	return tree, nil
}

// GetForest 展开所有BOM
func (s *ItemService) GetForest(ctx context.Context, keepIDs bool) (*Forest, error) {
	start := time.Now()
	key := forestCacheKey(keepIDs)

	if s.cache != nil {
		var cached Forest
		if s.cache.Get(ctx, key, &cached) {
			metrics.RecordDump("forest", true, time.Since(start))
			return &cached, nil
		}
	}

	dump, err := s.dumper.Dump(ctx, s.store, nil, keepIDs)
	if err != nil {
		return nil, err
	}
	forest := dump.Forest()

	if s.cache != nil {
		s.cache.Set(ctx, key, forest)
	}
	metrics.RecordDump("forest", false, time.Since(start))
	return forest, nil
}

// Subtree 按路径顺序返回节点及其全部后代
func (s *ItemService) Subtree(ctx context.Context, id string) ([]entity.Assembly, error) {
	root, err := s.store.FindNode(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.Subtree(ctx, root)
}

// ListImports 导入历史
func (s *ItemService) ListImports(ctx context.Context, page, pageSize int) ([]entity.ImportRecord, int64, error) {
	return s.store.ListImports(ctx, page, pageSize)
}

// Stats 库内统计
func (s *ItemService) Stats(ctx context.Context) (*repository.Stats, error) {
	return s.store.Stats(ctx)
}
