package main

import (
	"fmt"
	"io"

	"github.com/ddddddO/gtree"
	"github.com/wierzcho/ravacan/internal/bom/service"
)

const shortIDLen = 8

// nodeLabel 同一父节点下的同名行会被 gtree 合并，标签里带上短ID
func nodeLabel(n *service.TreeNode) string {
	c := n.Data.Component
	id := n.ID
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	label := fmt.Sprintf("%s %s x%s %s", c.Identifier, c.Name, n.Data.Quantity, c.Unit)
	if c.Price != "" {
		label += " @" + c.Price
	}
	if id != "" {
		label += " [" + id + "]"
	}
	return label
}

func addNodes(parent *gtree.Node, nodes []*service.TreeNode) {
	for _, n := range nodes {
		addNodes(parent.Add(nodeLabel(n)), n.Children)
	}
}

// renderDump 以目录树形式输出展开结果，根行显示 total_cost
func renderDump(w io.Writer, dump *service.Dump) error {
	forest := dump.Forest()
	root := gtree.NewRoot("total_cost " + forest.TotalCost)
	addNodes(root, forest.Items)
	return gtree.OutputFromRoot(w, root)
}
