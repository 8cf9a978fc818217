package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/utils"
)

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	PrimaryImage *ImageUpload
}

// UpdateProductCommand 更新商品命令，PrimaryImage 为空时保留原图
type UpdateProductCommand struct {
	ID           uint
	Name         string
	Description  string
	Price        decimal.Decimal
	PrimaryImage *ImageUpload
}

// AddProductImageCommand 添加附加图片命令
type AddProductImageCommand struct {
	ProductID uint
	Order     int
	Image     ImageUpload
}

// CatalogCommandService 商品目录命令服务
type CatalogCommandService struct {
	repo      domain.ProductRepository
	images    domain.ImageStore
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
}

// NewCatalogCommandService 创建商品目录命令服务实例
func NewCatalogCommandService(
	repo domain.ProductRepository,
	images domain.ImageStore,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
) *CatalogCommandService {
	return &CatalogCommandService{
		repo:      repo,
		images:    images,
		publisher: publisher,
		metrics:   m,
	}
}

// CreateProduct 处理创建商品，图片先上传，上传失败不落库
func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	product := &domain.Product{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if cmd.PrimaryImage != nil {
		url, err := s.upload(ctx, *cmd.PrimaryImage, domain.PrimaryImageFolder)
		if err != nil {
			return nil, err
		}
		product.PrimaryImageURL = &url
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicProductCreated, product.ID, domain.ProductCreatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Timestamp: time.Now(),
	})
	logger.Info(ctx, "product created", "product_id", product.ID)

	return product, nil
}

// UpdateProduct 处理更新商品
func (s *CatalogCommandService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	oldPrice := product.Price
	product.Name = cmd.Name
	product.Description = cmd.Description
	product.Price = cmd.Price
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if cmd.PrimaryImage != nil {
		url, err := s.upload(ctx, *cmd.PrimaryImage, domain.PrimaryImageFolder)
		if err != nil {
			return nil, err
		}
		product.PrimaryImageURL = &url
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicProductUpdated, product.ID, domain.ProductUpdatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		OldPrice:  oldPrice,
		NewPrice:  product.Price,
		ImageURL:  utils.DerefString(product.PrimaryImageURL),
		Timestamp: time.Now(),
	})

	return product, nil
}

// DeleteProduct 删除商品及其图片、购物车条目
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, domain.TopicProductDeleted, id, domain.ProductDeletedEvent{
		ProductID: id,
		Timestamp: time.Now(),
	})
	logger.Info(ctx, "product deleted", "product_id", id)
	return nil
}

// SetPrimaryImage 上传并替换商品主图
func (s *CatalogCommandService) SetPrimaryImage(ctx context.Context, productID uint, upload ImageUpload) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	url, err := s.upload(ctx, upload, domain.PrimaryImageFolder)
	if err != nil {
		return nil, err
	}
	product.PrimaryImageURL = &url

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicProductUpdated, product.ID, domain.ProductUpdatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		OldPrice:  product.Price,
		NewPrice:  product.Price,
		ImageURL:  url,
		Timestamp: time.Now(),
	})
	return product, nil
}

// AddProductImage 上传附加图片，同一商品的 Order 不可重复
func (s *CatalogCommandService) AddProductImage(ctx context.Context, cmd AddProductImageCommand) (*domain.ProductImage, error) {
	if cmd.Order < 0 {
		return nil, apperrors.InvalidInput("image order must not be negative")
	}
	if _, err := s.repo.GetByID(ctx, cmd.ProductID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListImages(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	for _, img := range existing {
		if img.Order == cmd.Order {
			return nil, apperrors.InvalidInput("product %d already has an image at order %d", cmd.ProductID, cmd.Order)
		}
	}

	url, err := s.upload(ctx, cmd.Image, domain.AdditionalImageFolder)
	if err != nil {
		return nil, err
	}

	image := &domain.ProductImage{
		ProductID: cmd.ProductID,
		ImageURL:  url,
		Order:     cmd.Order,
	}
	if err := s.repo.AddImage(ctx, image); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicProductImageAdded, cmd.ProductID, domain.ProductImageAddedEvent{
		ProductID: cmd.ProductID,
		ImageID:   image.ID,
		ImageURL:  image.ImageURL,
		Order:     image.Order,
		Timestamp: time.Now(),
	})
	return image, nil
}

// upload 归一化后上传，图床错误统一为 UploadError
func (s *CatalogCommandService) upload(ctx context.Context, upload ImageUpload, folder string) (string, error) {
	prepared, err := PrepareImage(upload)
	if err != nil {
		return "", err
	}

	url, err := s.images.Upload(ctx, prepared.Content, prepared.FileName, folder)
	s.metrics.RecordImageUpload(folder, err)
	if err != nil {
		logger.Error(ctx, "image upload failed", "folder", folder, "file_name", prepared.FileName, "error", err)
		if errors.Is(err, apperrors.ErrUpload) {
			return "", err
		}
		return "", apperrors.Upload(err, "image upload failed")
	}
	return url, nil
}

func (s *CatalogCommandService) publish(ctx context.Context, topic string, productID uint, event any) {
	if err := s.publisher.Publish(ctx, topic, strconv.FormatUint(uint64(productID), 10), event); err != nil {
		logger.Warn(ctx, "failed to publish event", "topic", topic, "product_id", productID, "error", err)
	}
}
