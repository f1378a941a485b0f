package handler

import (
	"time"

	"order-gateway/internal/config"
	"order-gateway/internal/model"
	"order-gateway/internal/pkg/crypto"
	"order-gateway/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 运营账号登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var operator model.Operator
	if err := model.DB.Where("email = ?", req.Email).First(&operator).Error; err != nil {
		response.Unauthorized(c, "邮箱或密码错误")
		return
	}

	if !operator.CheckPassword(req.Password) {
		response.Unauthorized(c, "邮箱或密码错误")
		return
	}

	cfg := config.Get()
	token, err := crypto.GenerateToken(operator.ID, operator.Email, operator.Role,
		cfg.JWT.Secret, cfg.JWT.ExpireHours)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	// 更新最后登录时间，失败不影响登录
	model.DB.Model(&operator).Update("last_login_at", time.Now())

	response.Success(c, gin.H{
		"token": token,
		"operator": gin.H{
			"id":    operator.ID,
			"email": operator.Email,
			"name":  operator.Name,
			"role":  operator.Role,
		},
	})
}

// GetProfile 获取当前运营账号信息
func (h *AuthHandler) GetProfile(c *gin.Context) {
	operatorID, _ := c.Get("operator_id")

	var operator model.Operator
	if err := model.DB.First(&operator, "id = ?", operatorID).Error; err != nil {
		response.NotFound(c, "账号不存在")
		return
	}

	response.Success(c, operator)
}
