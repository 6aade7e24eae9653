// Package response 统一的 HTTP JSON 响应信封
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 响应信封
type Body struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Code: "OK",
		Data: data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{
		Code: "OK",
		Data: data,
	})
}

// Error 错误响应，code 为业务错误码
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, Body{
		Code:    code,
		Message: message,
		Details: details,
	})
}
