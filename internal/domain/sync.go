package domain

import "time"

// Sync queue operations
const (
	SyncOpUpsert = "upsert"
	SyncOpDelete = "delete"
	SyncOpClear  = "clear"
)

// SyncQueue lives in the local store only. An unsynced row is the
// "pending sync" flag for the record it references; reconcile marks rows
// synced after a successful remote replay and a daily job purges them.
type SyncQueue struct {
	ID          int64     `json:"id,string" gorm:"primaryKey"`
	EntityTable string    `gorm:"column:table_name;index;size:64" json:"table_name"`
	RecordID    int64     `gorm:"index" json:"record_id,string"`
	Operation   string    `gorm:"size:16" json:"operation"`
	Payload     string    `gorm:"type:text" json:"payload"`
	Synced      bool      `gorm:"index;default:false" json:"synced"`
	Attempts    int       `gorm:"default:0" json:"attempts"`
	LastError   string    `json:"last_error"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SyncQueue) TableName() string { return "sync_queue" }

// SyncAudit records every conflict decision: which side won and the full
// payload of the discarded version. Diagnostic only, never surfaced.
type SyncAudit struct {
	ID               int64     `json:"id,string" gorm:"primaryKey"`
	EntityTable      string    `gorm:"column:table_name;index;size:64" json:"table_name"`
	RecordID         int64     `gorm:"index" json:"record_id,string"`
	Action           string    `gorm:"size:32" json:"action"`
	Winner           string    `gorm:"size:16" json:"winner"`
	DiscardedPayload string    `gorm:"type:text" json:"discarded_payload"`
	Detail           string    `json:"detail"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

func (SyncAudit) TableName() string { return "sync_audit" }
