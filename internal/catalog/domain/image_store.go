package domain

import "context"

// 图床目录
const (
	PrimaryImageFolder    = "/products/primary/"
	AdditionalImageFolder = "/products/additional/"
)

// ImageStore 外部图床，成功返回公开访问地址，失败返回 apperrors.ErrUpload
type ImageStore interface {
	Upload(ctx context.Context, content []byte, fileName, folder string) (string, error)
}
