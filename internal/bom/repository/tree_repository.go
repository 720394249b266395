package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/wierzcho/ravacan/internal/bom/mpath"
	"gorm.io/gorm"
)

// TreeRepository 基于物化路径的BOM树仓库 (PostgreSQL)
type TreeRepository struct {
	db       *gorm.DB
	importID string
}

func NewTreeRepository(db *gorm.DB) *TreeRepository {
	return &TreeRepository{db: db}
}

func (r *TreeRepository) DB() *gorm.DB {
	return r.db
}

// WithinImport 在单个事务中执行导入
func (r *TreeRepository) WithinImport(ctx context.Context, importID string, fn func(Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TreeRepository{db: tx, importID: importID})
	})
}

// GetOrCreateComponent 按 (identifier, name) 查找物料，不存在则创建
func (r *TreeRepository) GetOrCreateComponent(ctx context.Context, attrs ComponentAttrs) (*entity.Component, bool, error) {
	var component entity.Component
	err := r.db.WithContext(ctx).
		Where("identifier = ? AND name = ?", attrs.Identifier, attrs.Name).
		First(&component).Error
	if err == nil {
		return &component, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find component: %w", err)
	}

	component = entity.Component{
		ID:              generateID(),
		Identifier:      attrs.Identifier,
		Name:            attrs.Name,
		Category:        attrs.Category,
		Unit:            attrs.Unit,
		ProcurementType: attrs.ProcurementType,
		Price:           attrs.Price.Round(2),
		CreatedAt:       time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&component).Error; err != nil {
		return nil, false, fmt.Errorf("create component: %w", err)
	}
	return &component, true, nil
}

// AddRoot 追加根节点
func (r *TreeRepository) AddRoot(ctx context.Context, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	return r.appendChild(ctx, "", componentID, qty)
}

// AddChild 追加为 parent 的最后一个子节点
func (r *TreeRepository) AddChild(ctx context.Context, parent *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	return r.appendChild(ctx, parent.Path, componentID, qty)
}

// AddSibling 追加为 node 的最后一个兄弟节点
func (r *TreeRepository) AddSibling(ctx context.Context, node *entity.Assembly, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	return r.appendChild(ctx, mpath.Parent(node.Path), componentID, qty)
}

// GetParent 获取父节点，根节点返回 nil
func (r *TreeRepository) GetParent(ctx context.Context, node *entity.Assembly) (*entity.Assembly, error) {
	parentPath := mpath.Parent(node.Path)
	if parentPath == "" {
		return nil, nil
	}
	var parent entity.Assembly
	err := r.db.WithContext(ctx).First(&parent, "path = ?", parentPath).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &parent, nil
}

func (r *TreeRepository) appendChild(ctx context.Context, parentPath, componentID string, qty decimal.Decimal) (*entity.Assembly, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&entity.Assembly{}).
		Where("path LIKE ? AND depth = ?", parentPath+"%", mpath.Depth(parentPath)+1).
		Order("path DESC").
		Limit(1).
		Pluck("path", &paths).Error
	if err != nil {
		return nil, fmt.Errorf("find last sibling: %w", err)
	}

	path := mpath.First(parentPath)
	if len(paths) > 0 {
		if path, err = mpath.Next(paths[0]); err != nil {
			return nil, err
		}
	}

	node := &entity.Assembly{
		ID:          generateID(),
		Path:        path,
		Depth:       mpath.Depth(path),
		ComponentID: componentID,
		Quantity:    qty.Round(3),
		ImportID:    r.importID,
		CreatedAt:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(node).Error; err != nil {
		return nil, fmt.Errorf("create assembly: %w", err)
	}
	return node, nil
}

// FindNode 根据ID查找节点
func (r *TreeRepository) FindNode(ctx context.Context, id string) (*entity.Assembly, error) {
	var node entity.Assembly
	err := r.db.WithContext(ctx).Preload("Component").First(&node, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &node, nil
}

// Subtree 按路径顺序读取子树（root 为 nil 时读取整片森林）
func (r *TreeRepository) Subtree(ctx context.Context, root *entity.Assembly) ([]entity.Assembly, error) {
	var nodes []entity.Assembly
	query := r.db.WithContext(ctx).Preload("Component")
	if root != nil {
		query = query.Where("path LIKE ?", root.Path+"%")
	}
	err := query.Order("path ASC").Find(&nodes).Error
	return nodes, err
}

// ListRoots 分页获取顶层装配
func (r *TreeRepository) ListRoots(ctx context.Context, page, pageSize int) ([]entity.Assembly, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Assembly{}).Where("depth = ?", 1).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var roots []entity.Assembly
	err = r.db.WithContext(ctx).Preload("Component").
		Where("depth = ?", 1).
		Order("path ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&roots).Error
	return roots, total, err
}

// CreateImport 创建导入记录
func (r *TreeRepository) CreateImport(ctx context.Context, rec *entity.ImportRecord) error {
	if rec.ID == "" {
		rec.ID = generateID()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListImports 分页获取导入记录（最新在前）
func (r *TreeRepository) ListImports(ctx context.Context, page, pageSize int) ([]entity.ImportRecord, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.ImportRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []entity.ImportRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	return records, total, err
}

// Stats 统计记录数
func (r *TreeRepository) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.Component{}).Count(&stats.Components).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Assembly{}).Count(&stats.Assemblies).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Assembly{}).Where("depth = ?", 1).Count(&stats.Roots).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.ImportRecord{}).Count(&stats.Imports).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
