package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRandomString 生成随机字符串
func GenerateRandomString(length int) string {
	bytes := make([]byte, length/2+1)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:length]
}

// GenerateWebhookSecret 生成 Webhook 签名密钥
func GenerateWebhookSecret() string {
	return GenerateRandomString(64)
}

// MaskSecret 隐藏密钥中间部分
func MaskSecret(secret string) string {
	if len(secret) < 8 {
		return "****"
	}
	return secret[0:4] + "****" + secret[len(secret)-4:]
}
