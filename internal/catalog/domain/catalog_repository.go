package domain

import (
	"context"
	"io"
)

// ProductRepository 商品仓储
type ProductRepository interface {
	// Save 新建或更新商品
	Save(ctx context.Context, product *Product) error
	// GetByID 不存在时返回 apperrors.ErrNotFound
	GetByID(ctx context.Context, id uint) (*Product, error)
	// Delete 删除商品，级联删除图片与购物车条目
	Delete(ctx context.Context, id uint) error
	// List 按创建时间倒序分页
	List(ctx context.Context, offset, limit int) ([]*Product, int64, error)
	// ListAll 按创建时间倒序返回全部商品
	ListAll(ctx context.Context) ([]*Product, error)
	// Search 名称或描述包含 query（不区分大小写），按创建时间倒序
	Search(ctx context.Context, query string) ([]*Product, error)
	// ListImages 按 Order 升序返回商品图片
	ListImages(ctx context.Context, productID uint) ([]*ProductImage, error)
	// AddImage (ProductID, Order) 已存在时返回 apperrors.ErrInvalidInput
	AddImage(ctx context.Context, image *ProductImage) error
}

// ProductExporter 将商品写出为表格
type ProductExporter interface {
	Export(w io.Writer, products []*Product) error
	ContentType() string
	FileExtension() string
}
