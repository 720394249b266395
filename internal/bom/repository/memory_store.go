package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/wierzcho/ravacan/internal/bom/mpath"
)

// MemoryStore 内存实现的BOM树存储，语义与 TreeRepository 一致。
// 用于测试和 bomctl 的试运行模式，进程退出后数据丢失。
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

// memData lastChild 记录每个父路径下最后一个子节点的路径，根节点的父路径为 ""
type memData struct {
	components map[string]*entity.Component
	byKey      map[string]string
	nodes      map[string]*entity.Assembly
	byPath     map[string]string
	lastChild  map[string]string
	imports    []entity.ImportRecord
}

func newMemData() *memData {
	return &memData{
		components: make(map[string]*entity.Component),
		byKey:      make(map[string]string),
		nodes:      make(map[string]*entity.Assembly),
		byPath:     make(map[string]string),
		lastChild:  make(map[string]string),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for id, comp := range d.components {
		cp := *comp
		c.components[id] = &cp
	}
	for k, v := range d.byKey {
		c.byKey[k] = v
	}
	for id, node := range d.nodes {
		cp := *node
		c.nodes[id] = &cp
	}
	for k, v := range d.byPath {
		c.byPath[k] = v
	}
	for k, v := range d.lastChild {
		c.lastChild[k] = v
	}
	c.imports = append(c.imports, d.imports...)
	return c
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

// WithinImport 持锁执行回调，失败时恢复快照
func (s *MemoryStore) WithinImport(ctx context.Context, importID string, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&memTx{data: s.data, importID: importID}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) locked() *memTx {
	return &memTx{data: s.data}
}

func (s *MemoryStore) GetOrCreateComponent(ctx context.Context, attrs ComponentAttrs) (*entity.Component, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().GetOrCreateComponent(ctx, attrs)
}

func (s *MemoryStore) AddRoot(ctx context.Context, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().AddRoot(ctx, componentID, qty)
}

func (s *MemoryStore) AddChild(ctx context.Context, parent *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().AddChild(ctx, parent, componentID, qty)
}

func (s *MemoryStore) AddSibling(ctx context.Context, node *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().AddSibling(ctx, node, componentID, qty)
}

func (s *MemoryStore) GetParent(ctx context.Context, node *entity.Assembly) (*entity.Assembly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().GetParent(ctx, node)
}

func (s *MemoryStore) FindNode(ctx context.Context, id string) (*entity.Assembly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().FindNode(ctx, id)
}

func (s *MemoryStore) Subtree(ctx context.Context, root *entity.Assembly) ([]entity.Assembly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Subtree(ctx, root)
}

func (s *MemoryStore) ListRoots(ctx context.Context, page, pageSize int) ([]entity.Assembly, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().ListRoots(ctx, page, pageSize)
}

func (s *MemoryStore) CreateImport(ctx context.Context, rec *entity.ImportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().CreateImport(ctx, rec)
}

func (s *MemoryStore) ListImports(ctx context.Context, page, pageSize int) ([]entity.ImportRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().ListImports(ctx, page, pageSize)
}

func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked().Stats(ctx)
}

// memTx 调用方已持有 MemoryStore.mu
type memTx struct {
	data     *memData
	importID string
}

func componentKey(identifier, name string) string {
	return identifier + "\x00" + name
}

func (t *memTx) WithinImport(ctx context.Context, importID string, fn func(Store) error) error {
	return fn(t)
}

func (t *memTx) GetOrCreateComponent(ctx context.Context, attrs ComponentAttrs) (*entity.Component, bool, error) {
	key := componentKey(attrs.Identifier, attrs.Name)
	if id, ok := t.data.byKey[key]; ok {
		cp := *t.data.components[id]
		return &cp, false, nil
	}
	component := &entity.Component{
		ID:              generateID(),
		Identifier:      attrs.Identifier,
		Name:            attrs.Name,
		Category:        attrs.Category,
		Unit:            attrs.Unit,
		ProcurementType: attrs.ProcurementType,
		Price:           attrs.Price.Round(2),
		CreatedAt:       time.Now(),
	}
	t.data.components[component.ID] = component
	t.data.byKey[key] = component.ID
	cp := *component
	return &cp, true, nil
}

func (t *memTx) AddRoot(ctx context.Context, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	return t.appendChild("", componentID, qty)
}

func (t *memTx) AddChild(ctx context.Context, parent *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	if _, ok := t.data.byPath[parent.Path]; !ok {
		return nil, ErrNotFound
	}
	return t.appendChild(parent.Path, componentID, qty)
}

func (t *memTx) AddSibling(ctx context.Context, node *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	parentPath := mpath.Parent(node.Path)
	if parentPath != "" {
		if _, ok := t.data.byPath[parentPath]; !ok {
			return nil, ErrNotFound
		}
	}
	return t.appendChild(parentPath, componentID, qty)
}

func (t *memTx) GetParent(ctx context.Context, node *entity.Assembly) (*entity.Assembly, error) {
	parentPath := mpath.Parent(node.Path)
	if parentPath == "" {
		return nil, nil
	}
	id, ok := t.data.byPath[parentPath]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t.data.nodes[id]
	return &cp, nil
}

func (t *memTx) appendChild(parentPath, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	if _, ok := t.data.components[componentID]; !ok {
		return nil, fmt.Errorf("create assembly: component %s: %w", componentID, ErrNotFound)
	}

	depth := mpath.Depth(parentPath) + 1
	path := mpath.First(parentPath)
	if last, ok := t.data.lastChild[parentPath]; ok {
		var err error
		if path, err = mpath.Next(last); err != nil {
			return nil, err
		}
	}

	node := &entity.Assembly{
		ID:          generateID(),
		Path:        path,
		Depth:       depth,
		ComponentID: componentID,
		Quantity:    qty.Round(3),
		ImportID:    t.importID,
		CreatedAt:   time.Now(),
	}
	t.data.nodes[node.ID] = node
	t.data.byPath[path] = node.ID
	t.data.lastChild[parentPath] = path
	cp := *node
	return &cp, nil
}

// withComponent 返回带物料信息的节点副本
func (t *memTx) withComponent(node *entity.Assembly) entity.Assembly {
	cp := *node
	if comp, ok := t.data.components[node.ComponentID]; ok {
		c := *comp
		cp.Component = &c
	}
	return cp
}

func (t *memTx) FindNode(ctx context.Context, id string) (*entity.Assembly, error) {
	node, ok := t.data.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := t.withComponent(node)
	return &cp, nil
}

func (t *memTx) Subtree(ctx context.Context, root *entity.Assembly) ([]entity.Assembly, error) {
	prefix := ""
	if root != nil {
		prefix = root.Path
	}
	var nodes []entity.Assembly
	for path, id := range t.data.byPath {
		if mpath.IsDescendant(path, prefix) {
			nodes = append(nodes, t.withComponent(t.data.nodes[id]))
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}

func (t *memTx) ListRoots(ctx context.Context, page, pageSize int) ([]entity.Assembly, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var roots []entity.Assembly
	for _, node := range t.data.nodes {
		if node.Depth == 1 {
			roots = append(roots, t.withComponent(node))
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Path < roots[j].Path })

	total := int64(len(roots))
	start := (page - 1) * pageSize
	if start >= len(roots) {
		return []entity.Assembly{}, total, nil
	}
	end := start + pageSize
	if end > len(roots) {
		end = len(roots)
	}
	return roots[start:end], total, nil
}

func (t *memTx) CreateImport(ctx context.Context, rec *entity.ImportRecord) error {
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	t.data.imports = append(t.data.imports, *rec)
	return nil
}

func (t *memTx) ListImports(ctx context.Context, page, pageSize int) ([]entity.ImportRecord, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	records := make([]entity.ImportRecord, 0, len(t.data.imports))
	for i := len(t.data.imports) - 1; i >= 0; i-- {
		records = append(records, t.data.imports[i])
	}

	total := int64(len(records))
	start := (page - 1) * pageSize
	if start >= len(records) {
		return []entity.ImportRecord{}, total, nil
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], total, nil
}

func (t *memTx) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Components: int64(len(t.data.components)),
		Assemblies: int64(len(t.data.nodes)),
		Imports:    int64(len(t.data.imports)),
	}
	for _, node := range t.data.nodes {
		if node.Depth == 1 {
			stats.Roots++
		}
	}
	return stats, nil
}
