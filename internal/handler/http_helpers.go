package handler

import (
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func (a *API) text(c *gin.Context, key string) string {
	return translate(a.language(c), key)
}

// firstQuery 返回第一个非空的查询参数，用于兼容参数别名
func firstQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := c.Query(key); value != "" {
			return value
		}
	}
	return ""
}
