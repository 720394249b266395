package service

import (
	"context"
	"strings"
	"testing"

	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/wierzcho/ravacan/internal/bom/repository"
	"go.uber.org/zap"
)

const csvHeader = "level,item_number,item_name,item_category,unit_of_measure,procurement_type,quantity,price_by_unit\n"

// correctRows 三层耳机BOM，total_cost = 1.432
const correctRows = `0,999-0001-00,headphonesz,,EA,MTS,1,
1,800-0001-00,Assembled headmount,,EA,MTS,1,
2,700-0001-00,Headband,,EA,MTS,1,
3,100-0001-00,Steel band,Metal,EA,MTB,1,0.32
3,100-0002-00,Rivet,Metal,EA,MTB,1,0.11
3,100-0003-00,Foam pad,Plastic,EA,MTB,0.55,0.60
2,100-0004-00,Cable,Electrical,M,MTB,1.12,0.60
`

const correctCSV = csvHeader + correctRows

// incorrectCSV 第0/1/2/4行各缺一个必填字段
const incorrectCSV = csvHeader + `0,,headphones,,EA,MTS,1,
1,800-0001-00,Assembled headmount,,EA,MTS,,
2,700-0001-00,,,EA,MTS,1,
3,100-0001-00,Steel band,,EA,MTB,1,0.32
,100-0002-00,Rivet,,EA,MTB,1,0.11
`

func csvUpload(content string) *Upload {
	return &Upload{FileName: "file.csv", Content: []byte(content)}
}

func newTestServices(t *testing.T) (*Services, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewServices(store, nil, nil, zap.NewNop()), store
}

// importCSV 导入并返回结果，失败时终止测试
func importCSV(t *testing.T, svc *Services, content string) *ImportResult {
	t.Helper()
	result, report, err := svc.Import.Import(context.Background(), csvUpload(content))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !report.Empty() {
		t.Fatalf("unexpected validation report: %+v", report)
	}
	return result
}

// findByIdentifier 按物料编号查找节点
func findByIdentifier(t *testing.T, store *repository.MemoryStore, identifier string) *entity.Assembly {
	t.Helper()
	nodes, err := store.Subtree(context.Background(), nil)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	for i := range nodes {
		if nodes[i].Component != nil && nodes[i].Component.Identifier == identifier {
			return &nodes[i]
		}
	}
	t.Fatalf("node %s not found", identifier)
	return nil
}

func identifiers(nodes []*TreeNode) string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.Data.Component.Identifier)
	}
	return strings.Join(ids, ",")
}
