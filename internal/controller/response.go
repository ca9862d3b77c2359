package controller

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gametrack_v1_202601/internal/service"
)

// httpStatus 业务错误到 HTTP 状态码的映射
func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrRelationNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrUserDisabled):
		return http.StatusForbidden

	case errors.Is(err, service.ErrAccountExists),
		errors.Is(err, service.ErrRelationExists),
		errors.Is(err, service.ErrLastOwner),
		errors.Is(err, service.ErrTemplateExists),
		errors.Is(err, service.ErrUsernameExists),
		errors.Is(err, service.ErrEmailExists):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidOldPassword):
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}

// respondError 统一错误响应
// 业务错误原样透出（中文原因可直接展示），基础设施错误不泄露内部细节
func respondError(ctx *gin.Context, err error) {
	status := httpStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("内部错误: %v", err)
		message = "服务器内部错误"
	}
	ctx.JSON(status, gin.H{"error": message})
}
