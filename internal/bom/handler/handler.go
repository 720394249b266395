package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wierzcho/ravacan/internal/bom/service"
)

// Handlers 处理器集合
type Handlers struct {
	BOM *BOMHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		BOM: NewBOMHandler(svc.Import, svc.Item),
	}
}

// RegisterRoutes 注册 /api/v1/bom 路由
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	bom := api.Group("/bom")
	{
		bom.POST("/file/validate", h.BOM.ValidateFile)
		bom.POST("/file/upload", h.BOM.UploadFile)
		bom.GET("/file/template", h.BOM.DownloadTemplate)
		bom.GET("/items", h.BOM.ListItems)
		bom.GET("/items/:id", h.BOM.GetItem)
		bom.GET("/items/:id/export", h.BOM.ExportItem)
		bom.GET("/tree", h.BOM.GetTree)
		bom.GET("/imports", h.BOM.ListImports)
		bom.GET("/stats", h.BOM.Stats)
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewListResponse 组装分页列表
func NewListResponse(items interface{}, page, pageSize int, total int64) *ListResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 带数据的错误响应（如校验报告）
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// TooLarge 请求体过大
func TooLarge(c *gin.Context, message string) {
	Error(c, 41300, message)
}

// Unprocessable 文件内容无法建树
func Unprocessable(c *gin.Context, message string) {
	Error(c, 42200, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
