package model

// Organization 组织（租户）- 资源隔离的顶层单位
// 由租户配置后台维护，本服务只做查询
type Organization struct {
	BaseModel
	Name   string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug   string    `gorm:"type:varchar(50);uniqueIndex" json:"slug"` // URL友好标识
	Email  string    `gorm:"type:varchar(100)" json:"email"`
	Phone  string    `gorm:"type:varchar(20)" json:"phone"`
	Status OrgStatus `gorm:"type:varchar(20);default:active" json:"status"`

	// 关联
	Branches     []Branch              `gorm:"foreignKey:OrgID" json:"branches,omitempty"`
	Integrations []PlatformIntegration `gorm:"foreignKey:OrgID" json:"integrations,omitempty"`
}

type OrgStatus string

const (
	OrgStatusActive   OrgStatus = "active"
	OrgStatusDisabled OrgStatus = "disabled"
)

func (Organization) TableName() string {
	return "organizations"
}

// Branch 门店
type Branch struct {
	BaseModel
	OrgID     string `gorm:"type:varchar(36);not null;index" json:"org_id"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	Address   string `gorm:"type:varchar(500)" json:"address"`
	Phone     string `gorm:"type:varchar(20)" json:"phone"`
	IsDefault bool   `gorm:"default:false" json:"is_default"` // 外卖订单默认落到该门店
	Active    bool   `gorm:"default:true" json:"active"`
}

func (Branch) TableName() string {
	return "branches"
}
