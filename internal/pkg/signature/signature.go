package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign 对原始请求体计算 HMAC-SHA256 签名（hex 编码）
func Sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify 校验签名
// 必须对解析前的原始字节计算，JSON 重新序列化会改变字节表示导致校验失败。
// 比较使用 hmac.Equal 常量时间实现，避免时序侧信道
func Verify(secret string, body []byte, provided string) bool {
	if provided == "" {
		return false
	}
	// 兼容 sha256=xxx 形式的签名头
	provided = strings.TrimPrefix(provided, "sha256=")

	expected, err := hex.DecodeString(Sign(secret, body))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(provided))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
