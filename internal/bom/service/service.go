package service

import (
	"context"
	"errors"

	"github.com/wierzcho/ravacan/internal/bom/repository"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrInvalidFile        = errors.New("invalid file")
	ErrUnsupportedCharset = errors.New("unsupported charset")
	ErrDepthJump          = errors.New("depth increases by more than one level")
	ErrFirstRowDepth      = errors.New("first row must be at level 0")
	ErrAncestorMissing    = errors.New("ancestor not found")
	ErrCorruptTree        = errors.New("tree node placed at unexpected depth")
	ErrTooDeep            = errors.New("tree depth exceeds limit")
)

// IsPlacementError 建树阶段的致命错误（导入已回滚）
func IsPlacementError(err error) bool {
	return errors.Is(err, ErrDepthJump) ||
		errors.Is(err, ErrFirstRowDepth) ||
		errors.Is(err, ErrAncestorMissing) ||
		errors.Is(err, ErrTooDeep) ||
		errors.Is(err, ErrCorruptTree)
}

// Cache 展开结果缓存，未配置时为 nil
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any)
	Delete(ctx context.Context, keys ...string)
}

// Archiver 上传源文件归档，未配置时为 nil
type Archiver interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Remove(ctx context.Context, key string) error
}

// Services 服务集合
type Services struct {
	Import *ImportService
	Item   *ItemService
}

// NewServices 创建服务集合，cache 和 archiver 可为 nil
func NewServices(store repository.Store, cache Cache, archiver Archiver, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Services{
		Import: NewImportService(store, cache, archiver, logger),
		Item:   NewItemService(store, cache, logger),
	}
}
