package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Queue    QueueConfig    `yaml:"queue"`
	Log      LogConfig      `yaml:"log"`
	Security SecurityConfig `yaml:"security"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // mysql 或 sqlite
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	Path         string `yaml:"path"` // sqlite 文件路径
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Charset)
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type QueueConfig struct {
	BatchSize          int `yaml:"batch_size"`           // 每轮处理的最大条数
	MaxRetries         int `yaml:"max_retries"`          // 最大重试次数
	ClaimLeaseMinutes  int `yaml:"claim_lease_minutes"`  // 处理租约时长（分钟）
	RetentionHours     int `yaml:"retention_hours"`      // 已处理记录保留时长（小时）
	ProcessIntervalSec int `yaml:"process_interval_sec"` // 扫描间隔（秒）
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type SecurityConfig struct {
	EnableSecurityHeaders bool     `yaml:"enable_security_headers"` // 是否启用安全响应头
	AllowedOrigins        []string `yaml:"allowed_origins"`         // 允许的来源（CORS）

	WebhookMaxPerMinute int `yaml:"webhook_max_per_minute"` // Webhook 接口每分钟限制
	AuthMaxPerMinute    int `yaml:"auth_max_per_minute"`    // 认证接口每分钟限制
}

var globalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	setDefaults(&cfg)

	// 安全检查
	if err := validateSecurity(&cfg); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

func Get() *Config {
	return globalConfig
}

// Set 直接设置全局配置（测试用）
func Set(cfg *Config) {
	setDefaults(cfg)
	globalConfig = cfg
}

// setDefaults 设置默认值
func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.JWT.ExpireHours == 0 {
		cfg.JWT.ExpireHours = 24
	}
	if cfg.Queue.BatchSize == 0 {
		cfg.Queue.BatchSize = 50
	}
	if cfg.Queue.MaxRetries == 0 {
		cfg.Queue.MaxRetries = 6
	}
	if cfg.Queue.ClaimLeaseMinutes == 0 {
		cfg.Queue.ClaimLeaseMinutes = 2
	}
	if cfg.Queue.RetentionHours == 0 {
		cfg.Queue.RetentionHours = 24
	}
	if cfg.Queue.ProcessIntervalSec == 0 {
		cfg.Queue.ProcessIntervalSec = 60
	}
	if cfg.Security.WebhookMaxPerMinute == 0 {
		cfg.Security.WebhookMaxPerMinute = 300
	}
	if cfg.Security.AuthMaxPerMinute == 0 {
		cfg.Security.AuthMaxPerMinute = 10
	}
}

// validateSecurity 验证安全配置
func validateSecurity(cfg *Config) error {
	// 检查 JWT Secret
	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "your-jwt-secret-key-change-in-production" {
		if cfg.Server.Mode == "release" {
			return fmt.Errorf("生产环境必须设置安全的 JWT Secret")
		}
		// 开发环境自动生成随机密钥
		cfg.JWT.Secret = generateRandomSecret(32)
		fmt.Println("[WARNING] 使用自动生成的 JWT Secret，请在生产环境配置安全的密钥")
	}

	if len(cfg.JWT.Secret) < 32 {
		if cfg.Server.Mode == "release" {
			return fmt.Errorf("JWT Secret 长度至少需要 32 个字符")
		}
		fmt.Println("[WARNING] JWT Secret 长度建议至少 32 个字符")
	}

	return nil
}

// generateRandomSecret 生成随机密钥
func generateRandomSecret(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
