package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Operator 运营账号 - 用于队列巡检后台登录
type Operator struct {
	BaseModel
	Email        string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"type:varchar(100)" json:"name"`
	PasswordHash string     `gorm:"type:varchar(200);not null" json:"-"`
	Role         string     `gorm:"type:varchar(20);default:admin" json:"role"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

func (Operator) TableName() string {
	return "operators"
}

// SetPassword 设置密码（bcrypt）
func (o *Operator) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.PasswordHash = string(hash)
	return nil
}

// CheckPassword 验证密码
func (o *Operator) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)) == nil
}
