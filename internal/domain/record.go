package domain

import "time"

// SyncRecord is implemented by every entity that flows through the sync
// layer. RecordOwner returns 0 for unowned entities (products).
type SyncRecord interface {
	RecordID() int64
	RecordOwner() int64
	RecordUpdatedAt() time.Time
	TableName() string
}
