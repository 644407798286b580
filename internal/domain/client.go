package domain

import (
	"time"

	"gorm.io/gorm"
)

// Client is a customer record owned by the user who created it.
// Soft-deleted so that a delete can still replicate to the remote store.
type Client struct {
	ID            int64          `json:"id,string" gorm:"primaryKey"`
	UserID        int64          `gorm:"index" json:"user_id,string"`
	Company       string         `gorm:"index;size:256" json:"company"`
	ContactName   string         `json:"contact_name"`
	ContactEmail  string         `json:"contact_email"`
	ContactNumber string         `json:"contact_number"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Client) TableName() string { return "clients" }

func (c Client) RecordID() int64            { return c.ID }
func (c Client) RecordOwner() int64         { return c.UserID }
func (c Client) RecordUpdatedAt() time.Time { return c.UpdatedAt }
