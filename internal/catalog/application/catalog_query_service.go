package application

import (
	"context"
	"io"
	"strings"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/utils"
)

// DefaultPageSize 商品列表每页条数
const DefaultPageSize = 12

// ProductDetail 商品详情
type ProductDetail struct {
	Product *domain.Product        `json:"product"`
	Images  []*domain.ProductImage `json:"images"`
}

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	repo     domain.ProductRepository
	exporter domain.ProductExporter
	metrics  *metrics.Metrics
}

// NewCatalogQueryService 创建商品目录查询服务实例
func NewCatalogQueryService(
	repo domain.ProductRepository,
	exporter domain.ProductExporter,
	m *metrics.Metrics,
) *CatalogQueryService {
	return &CatalogQueryService{
		repo:     repo,
		exporter: exporter,
		metrics:  m,
	}
}

// GetProduct 根据ID获取商品信息
func (s *CatalogQueryService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProductDetail 商品及按顺序排列的附加图片
func (s *CatalogQueryService) GetProductDetail(ctx context.Context, id uint) (*ProductDetail, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []*domain.ProductImage{}
	}
	return &ProductDetail{Product: product, Images: images}, nil
}

// ListProducts 最新商品优先的分页列表，页码从 1 开始，超出末页返回空列表
func (s *CatalogQueryService) ListProducts(ctx context.Context, page, pageSize int) ([]*domain.Product, *utils.Pagination, error) {
	if page < 1 {
		return nil, nil, apperrors.InvalidInput("page must be at least 1")
	}
	if pageSize < 1 {
		return nil, nil, apperrors.InvalidInput("page size must be at least 1")
	}

	// 先按请求页计算 offset，再用总数补全分页信息
	p := utils.NewPagination(page, pageSize, 0)
	products, total, err := s.repo.List(ctx, p.Offset(), p.Limit())
	if err != nil {
		return nil, nil, err
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, utils.NewPagination(page, p.PageSize, total), nil
}

// Search 名称或描述包含查询词的商品，查询词为空或只含空白时返回空列表，匹配时保留原始空白
func (s *CatalogQueryService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	blank := strings.TrimSpace(query) == ""
	s.metrics.RecordSearch(blank)
	if blank {
		return []*domain.Product{}, nil
	}

	products, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

// ExportProducts 导出全部商品
func (s *CatalogQueryService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	return s.exporter.Export(w, products)
}

// ExportFormat 导出文件的类型与扩展名
func (s *CatalogQueryService) ExportFormat() (contentType, extension string) {
	return s.exporter.ContentType(), s.exporter.FileExtension()
}
