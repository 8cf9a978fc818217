// Package http 前台 JSON 接口
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/internal/storefront/application"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/response"
)

// StorefrontHandler 前台 HTTP 处理器
type StorefrontHandler struct {
	service *application.StorefrontService
}

// NewStorefrontHandler 创建前台 HTTP 处理器
func NewStorefrontHandler(service *application.StorefrontService) *StorefrontHandler {
	return &StorefrontHandler{service: service}
}

// RegisterRoutes 注册路由，cartMiddlewares 仅作用于购物车写操作
func (h *StorefrontHandler) RegisterRoutes(router *gin.RouterGroup, cartMiddlewares ...gin.HandlerFunc) {
	router.GET("/products", h.ListProducts)
	router.GET("/products/:id", h.GetProduct)
	router.GET("/search", h.Search)
	router.GET("/cart", h.ViewCart)

	cart := router.Group("/cart", cartMiddlewares...)
	{
		cart.POST("/add/:product_id", h.AddToCart)
		cart.POST("/remove/:item_id", h.RemoveFromCart)
		cart.POST("/update/:item_id", h.UpdateCartItem)
		cart.POST("/clear", h.ClearCart)
	}
}

// QuantityRequest 数量参数，JSON 或表单均可，缺省为 1
type QuantityRequest struct {
	Quantity *int `json:"quantity" form:"quantity"`
}

// ListProducts 商品列表
func (h *StorefrontHandler) ListProducts(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid page", raw)
			return
		}
		page = p
	}

	result, err := h.service.Browse(c.Request.Context(), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetProduct 商品详情
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.ProductDetail(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// Search 搜索商品
func (h *StorefrontHandler) Search(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ViewCart 查看购物车
func (h *StorefrontHandler) ViewCart(c *gin.Context) {
	view, err := h.service.ViewCart(c.Request.Context(), middleware.SessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// AddToCart 加入购物车
func (h *StorefrontHandler) AddToCart(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}
	quantity, ok := bindQuantity(c)
	if !ok {
		return
	}

	result, err := h.service.AddToCart(c.Request.Context(), middleware.SessionToken(c), productID, quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// RemoveFromCart 移除购物车条目
func (h *StorefrontHandler) RemoveFromCart(c *gin.Context) {
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}

	if err := h.service.RemoveFromCart(c.Request.Context(), middleware.SessionToken(c), itemID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// UpdateCartItem 更新条目数量，数量非正时删除
func (h *StorefrontHandler) UpdateCartItem(c *gin.Context) {
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}
	quantity, ok := bindQuantity(c)
	if !ok {
		return
	}

	result, err := h.service.UpdateCartItem(c.Request.Context(), middleware.SessionToken(c), itemID, quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ClearCart 清空购物车
func (h *StorefrontHandler) ClearCart(c *gin.Context) {
	if err := h.service.ClearCart(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid "+name, raw)
		return 0, false
	}
	return uint(id), true
}

func bindQuantity(c *gin.Context) (int, bool) {
	var req QuantityRequest
	var err error
	if c.Request.ContentLength == 0 {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid quantity", err.Error())
		return 0, false
	}
	if req.Quantity == nil {
		return 1, true
	}
	return *req.Quantity, true
}
