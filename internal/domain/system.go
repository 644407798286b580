package domain

import "time"

// User roles
const (
	UserRoleAdmin       = "admin"
	UserRoleSales       = "sales"
	UserRoleDistributor = "distributor"
)

// SysUser is an application account. Profiles replicate to the local
// store so sign-in keeps working offline.
type SysUser struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	Realname  string    `json:"realname"`
	Email     string    `gorm:"uniqueIndex;size:256" json:"email"`
	Password  string    `json:"-"`
	Role      string    `gorm:"size:32;default:'distributor'" json:"role"`
	Company   string    `json:"company"`
	Phone     string    `json:"phone"`
	Status    string    `gorm:"size:16" json:"status"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SysUser) TableName() string { return "sys_user" }

func (u SysUser) RecordID() int64            { return u.ID }
func (u SysUser) RecordOwner() int64         { return u.ID }
func (u SysUser) RecordUpdatedAt() time.Time { return u.UpdatedAt }

type SysConfig struct {
	ID        int64     `json:"id,string" form:"id"`
	Sort      int       `json:"sort" form:"sort"`
	Type      string    `gorm:"index" json:"type" form:"type"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Value     string    `json:"value" form:"value"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysConfig) TableName() string {
	return "sys_config"
}
