package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/wierzcho/ravacan/internal/bom/mpath"
)

// 输出精度
const (
	priceScale    = 2
	quantityScale = 3
	costScale     = 5
)

// TreeReader 按路径顺序读取子树
type TreeReader interface {
	Subtree(ctx context.Context, root *entity.Assembly) ([]entity.Assembly, error)
}

// ComponentView 物料输出格式
type ComponentView struct {
	Identifier      string `json:"identifier"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Unit            string `json:"unit"`
	ProcurementType string `json:"procurement_type"`
	Price           string `json:"price"`
}

// NodeData 节点数据
type NodeData struct {
	Component ComponentView `json:"component"`
	Quantity  string        `json:"quantity"`
}

// TreeNode 展开后的树节点
type TreeNode struct {
	ID       string      `json:"id,omitempty"`
	Data     NodeData    `json:"data"`
	Children []*TreeNode `json:"children,omitempty"`
}

// ItemTree 单个节点的展开结果，根节点字段与 total_cost 同级
type ItemTree struct {
	TotalCost string `json:"total_cost"`
	*TreeNode
}

// Forest 整片森林的展开结果
type Forest struct {
	TotalCost string      `json:"total_cost"`
	Items     []*TreeNode `json:"items"`
}

// Dump 展开结果
type Dump struct {
	TotalCost decimal.Decimal
	Items     []*TreeNode
	NodeCount int
}

// Item 单根输出
func (d *Dump) Item() *ItemTree {
	out := &ItemTree{TotalCost: d.TotalCost.StringFixed(costScale)}
	if len(d.Items) > 0 {
		out.TreeNode = d.Items[0]
	}
	return out
}

// Forest 森林输出，空森林的 total_cost 为 "0"
func (d *Dump) Forest() *Forest {
	out := &Forest{TotalCost: "0", Items: d.Items}
	if out.Items == nil {
		out.Items = []*TreeNode{}
	}
	if d.NodeCount > 0 {
		out.TotalCost = d.TotalCost.StringFixed(costScale)
	}
	return out
}

// TreeDumper 将存储的子树还原为嵌套结构并汇总成本
type TreeDumper struct{}

func NewTreeDumper() *TreeDumper {
	return &TreeDumper{}
}

// Dump 读取 root 的子树（root 为 nil 时为整片森林）。
// 只有根节点（depth 1）的行金额不计入 total_cost，展开非根子树时其顶层节点照常计入。
func (d *TreeDumper) Dump(ctx context.Context, reader TreeReader, root *entity.Assembly, keepIDs bool) (*Dump, error) {
	nodes, err := reader.Subtree(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("read subtree: %w", err)
	}

	out := &Dump{TotalCost: decimal.Zero, NodeCount: len(nodes)}
	if len(nodes) == 0 {
		return out, nil
	}

	top := topDepth(nodes, root)
	lnk := make(map[string]*TreeNode, len(nodes))
	for i := range nodes {
		node := &nodes[i]
		tn := &TreeNode{Data: nodeData(node)}
		if keepIDs {
			tn.ID = node.ID
		}
		lnk[node.Path] = tn

		if node.Depth != 1 {
			out.TotalCost = out.TotalCost.Add(node.LinePrice())
		}

		if node.Depth == top {
			out.Items = append(out.Items, tn)
			continue
		}
		parent, ok := lnk[mpath.Parent(node.Path)]
		if !ok {
			return nil, fmt.Errorf("%w: node %s has no parent in scan", ErrCorruptTree, node.ID)
		}
		parent.Children = append(parent.Children, tn)
	}
	return out, nil
}

func topDepth(nodes []entity.Assembly, root *entity.Assembly) int {
	if root != nil {
		return root.Depth
	}
	top := nodes[0].Depth
	for _, n := range nodes[1:] {
		if n.Depth < top {
			top = n.Depth
		}
	}
	return top
}

func nodeData(node *entity.Assembly) NodeData {
	data := NodeData{Quantity: node.Quantity.StringFixed(quantityScale)}
	if c := node.Component; c != nil {
		data.Component = ComponentView{
			Identifier:      c.Identifier,
			Name:            c.Name,
			Category:        c.Category,
			Unit:            c.Unit,
			ProcurementType: c.ProcurementType,
			Price:           c.Price.StringFixed(priceScale),
		}
	}
	return data
}
