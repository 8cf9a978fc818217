package application

import (
	"context"
	"io"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/utils"
)

// CatalogApplicationService 商品目录门面，组合命令与查询服务
type CatalogApplicationService struct {
	command *CatalogCommandService
	query   *CatalogQueryService
}

// NewCatalogApplicationService 创建商品目录门面
func NewCatalogApplicationService(command *CatalogCommandService, query *CatalogQueryService) *CatalogApplicationService {
	return &CatalogApplicationService{command: command, query: query}
}

// CreateProduct 创建商品
func (s *CatalogApplicationService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	return s.command.CreateProduct(ctx, cmd)
}

// UpdateProduct 更新商品
func (s *CatalogApplicationService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	return s.command.UpdateProduct(ctx, cmd)
}

// DeleteProduct 删除商品
func (s *CatalogApplicationService) DeleteProduct(ctx context.Context, id uint) error {
	return s.command.DeleteProduct(ctx, id)
}

// SetPrimaryImage 替换主图
func (s *CatalogApplicationService) SetPrimaryImage(ctx context.Context, productID uint, upload ImageUpload) (*domain.Product, error) {
	return s.command.SetPrimaryImage(ctx, productID, upload)
}

// AddProductImage 添加附加图片
func (s *CatalogApplicationService) AddProductImage(ctx context.Context, cmd AddProductImageCommand) (*domain.ProductImage, error) {
	return s.command.AddProductImage(ctx, cmd)
}

// GetProduct 获取商品
func (s *CatalogApplicationService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return s.query.GetProduct(ctx, id)
}

// GetProductDetail 获取商品详情
func (s *CatalogApplicationService) GetProductDetail(ctx context.Context, id uint) (*ProductDetail, error) {
	return s.query.GetProductDetail(ctx, id)
}

// ListProducts 分页列出商品
func (s *CatalogApplicationService) ListProducts(ctx context.Context, page, pageSize int) ([]*domain.Product, *utils.Pagination, error) {
	return s.query.ListProducts(ctx, page, pageSize)
}

// Search 搜索商品
func (s *CatalogApplicationService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	return s.query.Search(ctx, query)
}

// ExportProducts 导出商品
func (s *CatalogApplicationService) ExportProducts(ctx context.Context, w io.Writer) error {
	return s.query.ExportProducts(ctx, w)
}

// ExportFormat 导出格式
func (s *CatalogApplicationService) ExportFormat() (contentType, extension string) {
	return s.query.ExportFormat()
}
