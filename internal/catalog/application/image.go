package application

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/wyfcoding/storefront/pkg/apperrors"
)

// 图片约束
const (
	MaxImageSize   = 5 << 20
	MaxImageSide   = 10000
	MaxImagePixels = 40_000_000
	JPEGQuality    = 95
)

// ImageUpload 管理端上传的原始图片
type ImageUpload struct {
	FileName string
	Content  []byte
}

// PreparedImage 归一化后的 JPEG 图片
type PreparedImage struct {
	FileName string
	Content  []byte
}

// PrepareImage 校验大小与类型，转为白底 RGB JPEG（质量 95），文件名改为 .jpg
func PrepareImage(upload ImageUpload) (*PreparedImage, error) {
	if len(upload.Content) == 0 {
		return nil, apperrors.InvalidInput("image file is empty")
	}
	if len(upload.Content) > MaxImageSize {
		return nil, apperrors.InvalidInput("image size must be at most 5MB")
	}

	mime := mimetype.Detect(upload.Content)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, apperrors.InvalidInput("file is not an image").WithDetails(mime.String())
	}

	// 解码前按头部声明的尺寸限制内存占用
	cfg, _, err := image.DecodeConfig(bytes.NewReader(upload.Content))
	if err != nil {
		return nil, apperrors.InvalidInput("unsupported image format").WithDetails(mime.String())
	}
	if cfg.Width > MaxImageSide || cfg.Height > MaxImageSide || cfg.Width*cfg.Height > MaxImagePixels {
		return nil, apperrors.InvalidInput("image dimensions %dx%d exceed the limit", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(upload.Content))
	if err != nil {
		return nil, apperrors.InvalidInput("unsupported image format").WithDetails(mime.String())
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, apperrors.InvalidInput("failed to encode image")
	}

	return &PreparedImage{
		FileName: jpegFileName(upload.FileName),
		Content:  buf.Bytes(),
	}, nil
}

func jpegFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	return base + ".jpg"
}
