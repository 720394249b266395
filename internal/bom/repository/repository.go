package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wierzcho/ravacan/internal/bom/entity"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// generateID 生成32位ID
func generateID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:32]
}

// NewID 生成实体ID（导入记录等由服务层预先分配ID）
func NewID() string {
	return generateID()
}

// ComponentAttrs 物料属性，首次出现时写入
type ComponentAttrs struct {
	Identifier      string
	Name            string
	Category        string
	Unit            string
	ProcurementType string
	Price           decimal.Decimal
}

// Stats 库内记录统计
type Stats struct {
	Components int64 `json:"components"`
	Assemblies int64 `json:"assemblies"`
	Roots      int64 `json:"roots"`
	Imports    int64 `json:"imports"`
}

// Store BOM树存储
// 写操作只在 WithinImport 的回调中使用，回调返回错误时全部回滚
type Store interface {
	GetOrCreateComponent(ctx context.Context, attrs ComponentAttrs) (*entity.Component, bool, error)
	AddRoot(ctx context.Context, componentID string, qty decimal.Decimal) (*entity.Assembly, error)
	AddChild(ctx context.Context, parent *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error)
	AddSibling(ctx context.Context, node *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error)
	GetParent(ctx context.Context, node *entity.Assembly) (*entity.Assembly, error)

	FindNode(ctx context.Context, id string) (*entity.Assembly, error)
	Subtree(ctx context.Context, root *entity.Assembly) ([]entity.Assembly, error)
	ListRoots(ctx context.Context, page, pageSize int) ([]entity.Assembly, int64, error)

	CreateImport(ctx context.Context, rec *entity.ImportRecord) error
	ListImports(ctx context.Context, page, pageSize int) ([]entity.ImportRecord, int64, error)
	Stats(ctx context.Context) (*Stats, error)

	WithinImport(ctx context.Context, importID string, fn func(Store) error) error
}

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Component{},
		&entity.Assembly{},
		&entity.ImportRecord{},
	)
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
