package domain

import (
	"time"

	"gorm.io/gorm"
)

// Quote statuses
const (
	QuoteStatusDraft     = "draft"
	QuoteStatusSent      = "sent"
	QuoteStatusAccepted  = "accepted"
	QuoteStatusClosed    = "closed"
	QuoteStatusCancelled = "cancelled"
)

type Quote struct {
	ID          int64          `json:"id,string" gorm:"primaryKey"`
	UserID      int64          `gorm:"index" json:"user_id,string"`
	ClientID    int64          `gorm:"index" json:"client_id,string"`
	QuoteNumber string         `gorm:"uniqueIndex;size:64" json:"quote_number"`
	TotalAmount float64        `json:"total_amount"`
	Status      string         `gorm:"size:32;default:'draft'" json:"status"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Quote) TableName() string { return "quotes" }

func (q Quote) RecordID() int64            { return q.ID }
func (q Quote) RecordOwner() int64         { return q.UserID }
func (q Quote) RecordUpdatedAt() time.Time { return q.UpdatedAt }

// QuoteItem is a line of a quote; unit price is snapshotted at creation
// time so later catalog updates do not rewrite history.
type QuoteItem struct {
	ID         int64     `json:"id,string" gorm:"primaryKey"`
	QuoteID    int64     `gorm:"index" json:"quote_id,string"`
	UserID     int64     `gorm:"index" json:"user_id,string"`
	ProductID  int64     `gorm:"index" json:"product_id,string"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (QuoteItem) TableName() string { return "quote_items" }

func (q QuoteItem) RecordID() int64            { return q.ID }
func (q QuoteItem) RecordOwner() int64         { return q.UserID }
func (q QuoteItem) RecordUpdatedAt() time.Time { return q.UpdatedAt }
