package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/xuri/excelize/v2"
)

// exportHeaders 与导入列顺序一致，导出文件可直接重新导入
var exportHeaders = []string{
	"level", "item_number", "item_name", "item_category",
	"unit_of_measure", "procurement_type", "quantity", "price_by_unit",
}

var exportColWidths = []float64{8, 16, 28, 16, 14, 16, 12, 14}

const exportSheet = "BOM"

// ExportItem 导出节点子树为xlsx，level 相对于导出的根节点
func (s *ItemService) ExportItem(ctx context.Context, id string) (*excelize.File, string, error) {
	nodes, err := s.Subtree(ctx, id)
	if err != nil {
		return nil, "", err
	}

	f, err := newExportFile()
	if err != nil {
		return nil, "", err
	}

	rootDepth := nodes[0].Depth
	for i := range nodes {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, exportRow(&nodes[i], rootDepth)); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("write row %d: %w", i, err)
		}
	}

	filename := "BOM.xlsx"
	if c := nodes[0].Component; c != nil {
		filename = fmt.Sprintf("BOM_%s.xlsx", c.Identifier)
	}
	return f, filename, nil
}

// Template 生成只有表头的导入模板
func Template() (*excelize.File, error) {
	return newExportFile()
}

func newExportFile() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	last, _ := excelize.ColumnNumberToName(len(exportHeaders))
	f.SetCellStyle(exportSheet, "A1", last+"1", boldStyle)

	for i, w := range exportColWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, col, col, w)
	}
	return f, nil
}

// exportRow 数值以文本写出，保持与导入时相同的精度
func exportRow(node *entity.Assembly, rootDepth int) *[]interface{} {
	row := []interface{}{
		strconv.Itoa(node.Depth - rootDepth),
		"", "", "", "", "",
		node.Quantity.StringFixed(quantityScale),
		"",
	}
	if c := node.Component; c != nil {
		row[colIdentifier] = c.Identifier
		row[colName] = c.Name
		row[colCategory] = c.Category
		row[colUnit] = c.Unit
		row[colProcurementType] = c.ProcurementType
		row[colUnitPrice] = c.Price.StringFixed(priceScale)
	}
	return &row
}
