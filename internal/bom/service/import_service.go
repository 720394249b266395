package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/wierzcho/ravacan/internal/bom/metrics"
	"github.com/wierzcho/ravacan/internal/bom/repository"
	"go.uber.org/zap"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ImportResult 导入结果
type ImportResult struct {
	entity.ImportRecord
	RootIDs []string `json:"root_ids"`
}

// ImportService BOM文件导入服务
type ImportService struct {
	store    repository.Store
	cache    Cache
	archiver Archiver
	builder  *TreeBuilder
	logger   *zap.Logger
}

// NewImportService 创建导入服务
func NewImportService(store repository.Store, cache Cache, archiver Archiver, logger *zap.Logger) *ImportService {
	return &ImportService{
		store:    store,
		cache:    cache,
		archiver: archiver,
		builder:  NewTreeBuilder(),
		logger:   logger,
	}
}

// Validate 只校验不入库，返回完整的错误报告
func (s *ImportService) Validate(ctx context.Context, upload *Upload) (*ValidationReport, error) {
	sheet, err := ReadUpload(upload)
	if err != nil {
		return nil, err
	}
	report, _ := ValidateSheet(sheet)
	if !report.Empty() {
		metrics.RowErrors.Add(float64(len(report.Rows)))
	}
	return report, nil
}

// Import 校验并导入。
// 校验失败时返回报告且不写入任何数据；建树失败时整个导入回滚。
func (s *ImportService) Import(ctx context.Context, upload *Upload) (*ImportResult, *ValidationReport, error) {
	start := time.Now()

	sheet, err := ReadUpload(upload)
	if err != nil {
		metrics.RecordImport("unknown", metrics.StatusInvalid, time.Since(start))
		return nil, nil, err
	}

	report, lines := ValidateSheet(sheet)
	if !report.Empty() {
		metrics.RowErrors.Add(float64(len(report.Rows)))
		metrics.RecordImport(sheet.Format, metrics.StatusInvalid, time.Since(start))
		s.logger.Info("BOM file rejected by validation",
			zap.String("file", upload.FileName),
			zap.Int("errors", report.ErrorCount()))
		return nil, report, nil
	}

	importID := repository.NewID()
	objectKey := s.archive(ctx, importID, upload, sheet.Format)

	record := &entity.ImportRecord{
		ID:        importID,
		FileName:  upload.FileName,
		Format:    sheet.Format,
		RowCount:  len(lines),
		ObjectKey: objectKey,
	}
	var build *BuildResult
	err = s.store.WithinImport(ctx, importID, func(tx repository.Store) error {
		var err error
		build, err = s.builder.Build(ctx, tx, lines)
		if err != nil {
			return err
		}
		record.RootCount = len(build.Roots)
		record.NodeCount = build.NodeCount
		record.ComponentsCreated = build.ComponentsCreated
		return tx.CreateImport(ctx, record)
	})
	if err != nil {
		s.discardArchive(ctx, objectKey)
		status := metrics.StatusError
		if IsPlacementError(err) {
			status = metrics.StatusRejected
		}
		metrics.RecordImport(sheet.Format, status, time.Since(start))
		s.logger.Warn("BOM import rolled back",
			zap.String("file", upload.FileName),
			zap.String("import_id", importID),
			zap.Error(err))
		return nil, nil, fmt.Errorf("import %s: %w", upload.FileName, err)
	}

	if s.cache != nil {
		s.cache.Delete(ctx, forestCacheKey(true), forestCacheKey(false))
	}
	metrics.RecordBuild(build.NodeCount, build.ComponentsCreated)
	metrics.RecordImport(sheet.Format, metrics.StatusOK, time.Since(start))

	result := &ImportResult{ImportRecord: *record, RootIDs: make([]string, 0, len(build.Roots))}
	for _, root := range build.Roots {
		result.RootIDs = append(result.RootIDs, root.ID)
	}

	s.logger.Info("BOM file imported",
		zap.String("file", upload.FileName),
		zap.String("import_id", importID),
		zap.Int("rows", record.RowCount),
		zap.Int("roots", record.RootCount),
		zap.Int("components_created", record.ComponentsCreated),
		zap.Duration("took", time.Since(start)))
	return result, nil, nil
}

// archive 归档源文件，失败只记录日志
func (s *ImportService) archive(ctx context.Context, importID string, upload *Upload, format string) string {
	if s.archiver == nil {
		return ""
	}
	key := objectKey(importID, upload.FileName)
	contentType := contentTypeCSV
	if format == entity.FormatXLSX {
		contentType = contentTypeXLSX
	}
	if err := s.archiver.Put(ctx, key, upload.Content, contentType); err != nil {
		s.logger.Warn("archive BOM file failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

func (s *ImportService) discardArchive(ctx context.Context, key string) {
	if s.archiver == nil || key == "" {
		return
	}
	if err := s.archiver.Remove(ctx, key); err != nil {
		s.logger.Warn("remove archived BOM file failed", zap.String("key", key), zap.Error(err))
	}
}

// objectKey 归档对象路径 imports/<import-id>/<file>
func objectKey(importID, fileName string) string {
	name := filepath.Base(fileName)
	if name == "." || name == string(filepath.Separator) {
		name = "upload"
	}
	return "imports/" + importID + "/" + name
}
