// Package imagekit 通过 ImageKit 上传接口存储商品图片
package imagekit

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/apperrors"
)

// Config ImageKit 配置
type Config struct {
	UploadURL  string
	PrivateKey string
	Timeout    time.Duration
}

type uploadResponse struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	FilePath string `json:"filePath"`
}

type errorResponse struct {
	Message string `json:"message"`
	Help    string `json:"help"`
}

// Uploader ImageKit 客户端
type Uploader struct {
	client    *resty.Client
	uploadURL string
}

var _ domain.ImageStore = (*Uploader)(nil)

// NewUploader 创建 ImageKit 客户端，私钥作为 Basic Auth 用户名
func NewUploader(cfg Config) *Uploader {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.PrivateKey, "").
		SetHeader("Accept", "application/json")

	return &Uploader{
		client:    client,
		uploadURL: cfg.UploadURL,
	}
}

// Upload 上传文件到 folder，使用唯一文件名，返回公开地址
func (u *Uploader) Upload(ctx context.Context, content []byte, fileName, folder string) (string, error) {
	var result uploadResponse
	var apiErr errorResponse

	resp, err := u.client.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(content)).
		SetFormData(map[string]string{
			"fileName":          fileName,
			"folder":            folder,
			"useUniqueFileName": "true",
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post(u.uploadURL)
	if err != nil {
		return "", apperrors.Upload(err, "image host unreachable")
	}

	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = resp.Status()
		}
		return "", apperrors.Upload(fmt.Errorf("status %d: %s", resp.StatusCode(), msg), "image host rejected upload")
	}
	if result.URL == "" {
		return "", apperrors.Upload(fmt.Errorf("status %d", resp.StatusCode()), "image host returned no url")
	}
	return result.URL, nil
}
