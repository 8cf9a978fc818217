// Package response 统一 HTTP JSON 响应
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// Success 200 返回数据
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created 201 返回数据
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// ErrorWithStatus 按给定状态码返回错误
func ErrorWithStatus(c *gin.Context, status int, message string, detail string) {
	body := gin.H{
		"success": false,
		"error":   message,
	}
	if detail != "" {
		body["detail"] = detail
	}
	c.AbortWithStatusJSON(status, body)
}

// Error 按错误分类映射状态码，未分类错误记录日志并隐藏细节
func Error(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	ErrorWithStatus(c, status, apperrors.Message(err), "")
}
