package domain

import "time"

// SearchHistory is an append-only log of catalog searches per user.
type SearchHistory struct {
	ID         int64     `json:"id,string" gorm:"primaryKey"`
	UserID     int64     `gorm:"index" json:"user_id,string"`
	SearchTerm string    `gorm:"size:256" json:"search_term"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (SearchHistory) TableName() string { return "search_history" }

func (s SearchHistory) RecordID() int64            { return s.ID }
func (s SearchHistory) RecordOwner() int64         { return s.UserID }
func (s SearchHistory) RecordUpdatedAt() time.Time { return s.UpdatedAt }
