package middleware

import (
	"strings"

	"order-gateway/internal/config"
	"order-gateway/internal/pkg/crypto"
	"order-gateway/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT 认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "缺少认证信息")
			c.Abort()
			return
		}

		// Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "认证格式错误")
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := crypto.ParseToken(token, config.Get().JWT.Secret)
		if err != nil {
			response.Unauthorized(c, "无效的认证信息")
			c.Abort()
			return
		}

		// 将运营账号信息存入上下文
		c.Set("operator_id", claims.OperatorID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// GetOperatorID 从上下文取运营账号 ID
func GetOperatorID(c *gin.Context) string {
	if v, ok := c.Get("operator_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
