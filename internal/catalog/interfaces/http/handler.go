// Package http 商品目录管理接口，需携带 X-API-KEY
package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/catalog/application"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"github.com/wyfcoding/storefront/pkg/response"
)

// CatalogHandler 管理端 HTTP 处理器
type CatalogHandler struct {
	service *application.CatalogApplicationService
}

// NewCatalogHandler 创建管理端 HTTP 处理器
func NewCatalogHandler(service *application.CatalogApplicationService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes 注册路由，调用方负责挂载鉴权中间件
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("/export", h.ExportProducts)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
		products.POST("/:id/primary-image", h.SetPrimaryImage)
		products.POST("/:id/images", h.AddProductImage)
	}
}

// ProductForm 创建与更新商品的表单，primary_image 为可选文件字段
type ProductForm struct {
	Name        string `form:"name" json:"name" binding:"required"`
	Description string `form:"description" json:"description"`
	Price       string `form:"price" json:"price" binding:"required"`
}

// CreateProduct 创建商品
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	cmd, ok := h.bindProduct(c)
	if !ok {
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Name:         cmd.Name,
		Description:  cmd.Description,
		Price:        cmd.Price,
		PrimaryImage: cmd.PrimaryImage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product)
}

// UpdateProduct 更新商品
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cmd, ok := h.bindProduct(c)
	if !ok {
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), application.UpdateProductCommand{
		ID:           id,
		Name:         cmd.Name,
		Description:  cmd.Description,
		Price:        cmd.Price,
		PrimaryImage: cmd.PrimaryImage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPrimaryImage 上传主图，文件字段 image
func (h *CatalogHandler) SetPrimaryImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	upload, err := readUpload(c, "image")
	if err == nil && upload == nil {
		err = apperrors.InvalidInput("image file is required")
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	product, err := h.service.SetPrimaryImage(c.Request.Context(), id, *upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, product)
}

// AddProductImage 上传附加图片，表单字段 image 与 order
func (h *CatalogHandler) AddProductImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := strconv.Atoi(c.PostForm("order"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid order", c.PostForm("order"))
		return
	}
	upload, err := readUpload(c, "image")
	if err == nil && upload == nil {
		err = apperrors.InvalidInput("image file is required")
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	image, err := h.service.AddProductImage(c.Request.Context(), application.AddProductImageCommand{
		ProductID: id,
		Order:     order,
		Image:     *upload,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, image)
}

// ExportProducts 以附件形式导出全部商品
func (h *CatalogHandler) ExportProducts(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.ExportProducts(c.Request.Context(), &buf); err != nil {
		response.Error(c, err)
		return
	}

	contentType, ext := h.service.ExportFormat()
	fileName := fmt.Sprintf("products-%s.%s", time.Now().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

type productInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	PrimaryImage *application.ImageUpload
}

func (h *CatalogHandler) bindProduct(c *gin.Context) (*productInput, bool) {
	var form ProductForm
	if err := c.ShouldBind(&form); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product", err.Error())
		return nil, false
	}
	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid price", form.Price)
		return nil, false
	}

	upload, err := readUpload(c, "primary_image")
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return &productInput{
		Name:         form.Name,
		Description:  form.Description,
		Price:        price,
		PrimaryImage: upload,
	}, true
}

// readUpload 读取 multipart 文件，字段缺失时返回 nil
func readUpload(c *gin.Context, field string) (*application.ImageUpload, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.InvalidInput("invalid %s upload", field)
	}
	if header.Size > application.MaxImageSize {
		return nil, apperrors.InvalidInput("image size must be at most 5MB")
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, application.MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	return &application.ImageUpload{FileName: header.Filename, Content: content}, nil
}

func pathID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", raw)
		return 0, false
	}
	return uint(id), true
}
