package domain

import "time"

// CartItem is transient working state: cleared when a quote is created
// from it. ClientID is optional, a cart may be built before a client is
// chosen.
type CartItem struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	UserID    int64     `gorm:"index:idx_cart_user_product" json:"user_id,string"`
	ClientID  int64     `gorm:"index" json:"client_id,string"`
	ProductID int64     `gorm:"index:idx_cart_user_product" json:"product_id,string"`
	Quantity  int       `gorm:"default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }

func (c CartItem) RecordID() int64            { return c.ID }
func (c CartItem) RecordOwner() int64         { return c.UserID }
func (c CartItem) RecordUpdatedAt() time.Time { return c.UpdatedAt }
