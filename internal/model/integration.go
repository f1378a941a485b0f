package model

import "time"

// Platform 外卖平台标识
type Platform string

const (
	PlatformUberEats  Platform = "ubereats"
	PlatformDeliveroo Platform = "deliveroo"
	PlatformJahez     Platform = "jahez"
)

// Valid 是否为受支持的平台
func (p Platform) Valid() bool {
	switch p {
	case PlatformUberEats, PlatformDeliveroo, PlatformJahez:
		return true
	}
	return false
}

// PlatformIntegration 平台接入配置 - 租户（组织）与外卖平台的绑定关系
// 由租户配置后台创建和修改，本服务只读
type PlatformIntegration struct {
	BaseModel
	OrgID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_org_platform" json:"org_id"`
	Platform   Platform   `gorm:"type:varchar(20);not null;uniqueIndex:idx_org_platform" json:"platform"`
	StoreID    string     `gorm:"type:varchar(100);not null" json:"store_id"` // 平台侧门店标识
	Secret     string     `gorm:"type:varchar(200);not null" json:"-"`        // 签名密钥，不对外输出
	Active     bool       `gorm:"default:true" json:"active"`
	LastSyncAt *time.Time `json:"last_sync_at"`

	// 关联
	Organization *Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
}

func (PlatformIntegration) TableName() string {
	return "platform_integrations"
}
