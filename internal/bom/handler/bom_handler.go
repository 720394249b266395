package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wierzcho/ravacan/internal/bom/repository"
	"github.com/wierzcho/ravacan/internal/bom/service"
)

// BOMHandler BOM文件导入与查询
type BOMHandler struct {
	imports *service.ImportService
	items   *service.ItemService
}

func NewBOMHandler(imports *service.ImportService, items *service.ItemService) *BOMHandler {
	return &BOMHandler{imports: imports, items: items}
}

// readUpload 读取 multipart 的 file 字段，返回 false 时已写出错误响应
func readUpload(c *gin.Context) (*service.Upload, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			TooLarge(c, "file too large")
			return nil, false
		}
		BadRequest(c, "file is required")
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		BadRequest(c, "open file: "+err.Error())
		return nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		BadRequest(c, "read file: "+err.Error())
		return nil, false
	}

	return &service.Upload{
		FileName: header.Filename,
		Content:  content,
		Charset:  c.PostForm("charset"),
	}, true
}

// fileError 文件无法解码时的响应
func fileError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidFile) || errors.Is(err, service.ErrUnsupportedCharset) {
		BadRequest(c, err.Error())
		return
	}
	InternalError(c, err.Error())
}

// ValidateFile POST /bom/file/validate
func (h *BOMHandler) ValidateFile(c *gin.Context) {
	upload, ok := readUpload(c)
	if !ok {
		return
	}

	report, err := h.imports.Validate(c.Request.Context(), upload)
	if err != nil {
		fileError(c, err)
		return
	}
	if !report.Empty() {
		ErrorWithData(c, 40000, "validation failed", report)
		return
	}
	Success(c, struct{}{})
}

// UploadFile POST /bom/file/upload
func (h *BOMHandler) UploadFile(c *gin.Context) {
	upload, ok := readUpload(c)
	if !ok {
		return
	}

	result, report, err := h.imports.Import(c.Request.Context(), upload)
	if err != nil {
		switch {
		case service.IsPlacementError(err):
			Unprocessable(c, err.Error())
		case errors.Is(err, service.ErrInvalidFile), errors.Is(err, service.ErrUnsupportedCharset):
			BadRequest(c, err.Error())
		default:
			c.Error(err)
			InternalError(c, "import failed")
		}
		return
	}
	if !report.Empty() {
		ErrorWithData(c, 40000, "validation failed", report)
		return
	}
	Created(c, result)
}

// DownloadTemplate GET /bom/file/template
func (h *BOMHandler) DownloadTemplate(c *gin.Context) {
	f, err := service.Template()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\"BOM_Import_Template.xlsx\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}

// ListItems GET /bom/items
func (h *BOMHandler) ListItems(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.items.ListItems(c.Request.Context(), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// GetItem GET /bom/items/:id
func (h *BOMHandler) GetItem(c *gin.Context) {
	tree, err := h.items.GetItemTree(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "item not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, tree)
}

// ExportItem GET /bom/items/:id/export
func (h *BOMHandler) ExportItem(c *gin.Context) {
	f, filename, err := h.items.ExportItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "item not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}

// GetTree GET /bom/tree?keep_ids=true
func (h *BOMHandler) GetTree(c *gin.Context) {
	keepIDs, _ := strconv.ParseBool(c.DefaultQuery("keep_ids", "false"))

	forest, err := h.items.GetForest(c.Request.Context(), keepIDs)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, forest)
}

// ListImports GET /bom/imports
func (h *BOMHandler) ListImports(c *gin.Context) {
	page, pageSize := GetPagination(c)

	records, total, err := h.items.ListImports(c.Request.Context(), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(records, page, pageSize, total))
}

// Stats GET /bom/stats
func (h *BOMHandler) Stats(c *gin.Context) {
	stats, err := h.items.Stats(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, stats)
}
