package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/wierzcho/ravacan/internal/bom/mpath"
	"github.com/wierzcho/ravacan/internal/bom/repository"
)

// TreeStore 建树所需的存储操作
type TreeStore interface {
	GetOrCreateComponent(ctx context.Context, attrs repository.ComponentAttrs) (*entity.Component, bool, error)
	AddRoot(ctx context.Context, componentID string, qty decimal.Decimal) (*entity.Assembly, error)
	AddChild(ctx context.Context, parent *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error)
	AddSibling(ctx context.Context, node *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error)
	GetParent(ctx context.Context, node *entity.Assembly) (*entity.Assembly, error)
}

// placement 新节点相对游标的位置
type placement int

const (
	placeRoot placement = iota
	placeSibling
	placeChild
	placeAncestor
)

func (p placement) String() string {
	switch p {
	case placeRoot:
		return "root"
	case placeSibling:
		return "sibling"
	case placeChild:
		return "child"
	case placeAncestor:
		return "ancestor-sibling"
	}
	return fmt.Sprintf("placement(%d)", int(p))
}

// cursor 最近创建的节点及其深度
type cursor struct {
	node  *entity.Assembly
	depth int
}

// decidePlacement 根据游标和行深度（从1开始）决定插入位置
func decidePlacement(cur *cursor, depth int) (placement, error) {
	if depth > mpath.MaxDepth {
		return 0, fmt.Errorf("%w: level %d, max %d", ErrTooDeep, depth-1, mpath.MaxDepth-1)
	}
	if cur == nil {
		if depth != 1 {
			return 0, fmt.Errorf("%w: got level %d", ErrFirstRowDepth, depth-1)
		}
		return placeRoot, nil
	}
	switch {
	case depth == cur.depth:
		return placeSibling, nil
	case depth == cur.depth+1:
		return placeChild, nil
	case depth >= 1 && depth < cur.depth:
		return placeAncestor, nil
	case depth < 1:
		return 0, fmt.Errorf("%w: level %d", ErrDepthJump, depth-1)
	default:
		return 0, fmt.Errorf("%w: from level %d to %d", ErrDepthJump, cur.depth-1, depth-1)
	}
}

// BuildResult 建树结果
type BuildResult struct {
	Roots             []*entity.Assembly
	NodeCount         int
	ComponentsCreated int
}

// TreeBuilder 按行深度将校验后的行还原为树
type TreeBuilder struct{}

func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{}
}

// Build 依次回放各行。任何错误都是致命的，调用方负责回滚。
func (b *TreeBuilder) Build(ctx context.Context, store TreeStore, lines []CSVLine) (*BuildResult, error) {
	result := &BuildResult{}
	var cur *cursor

	for i, line := range lines {
		depth := line.Depth + 1

		place, err := decidePlacement(cur, depth)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		component, created, err := store.GetOrCreateComponent(ctx, repository.ComponentAttrs{
			Identifier:      line.Identifier,
			Name:            line.Name,
			Category:        line.Category,
			Unit:            line.Unit,
			ProcurementType: line.ProcurementType,
			Price:           decimal.NewFromFloat(line.Price),
		})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if created {
			result.ComponentsCreated++
		}

		node, err := b.place(ctx, store, cur, place, depth, component.ID, decimal.NewFromFloat(line.Quantity))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if node.Depth != depth {
			return nil, fmt.Errorf("row %d: %w: want %d, got %d", i, ErrCorruptTree, depth, node.Depth)
		}

		if depth == 1 {
			result.Roots = append(result.Roots, node)
		}
		result.NodeCount++
		cur = &cursor{node: node, depth: depth}
	}

	return result, nil
}

func (b *TreeBuilder) place(ctx context.Context, store TreeStore, cur *cursor, place placement, depth int, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	switch place {
	case placeRoot:
		return store.AddRoot(ctx, componentID, qty)
	case placeSibling:
		return store.AddSibling(ctx, cur.node, componentID, qty)
	case placeChild:
		return store.AddChild(ctx, cur.node, componentID, qty)
	case placeAncestor:
		anchor := cur.node
		for step := cur.depth - depth; step > 0; step-- {
			parent, err := store.GetParent(ctx, anchor)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrAncestorMissing, err)
			}
			if parent == nil {
				return nil, ErrAncestorMissing
			}
			anchor = parent
		}
		return store.AddSibling(ctx, anchor, componentID, qty)
	}
	return nil, fmt.Errorf("unknown placement %s", place)
}
