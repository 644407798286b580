package domain

// Tables is migrated on both stores so the local and remote schemas stay
// identical. SyncQueue and SyncAudit exist only locally.
var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysUser{},
	// Catalog
	&Product{},
	// CRM
	&Client{},
	&Quote{},
	&QuoteItem{},
	&CartItem{},
	&SearchHistory{},
}

// LocalTables are migrated on the local store only.
var LocalTables = []interface{}{
	&SyncQueue{},
	&SyncAudit{},
}

// prototypes maps a table name to a factory for an empty record, used by
// reconcile to materialize queue payloads.
var prototypes = map[string]func() SyncRecord{
	Product{}.TableName():       func() SyncRecord { return &Product{} },
	Client{}.TableName():        func() SyncRecord { return &Client{} },
	Quote{}.TableName():         func() SyncRecord { return &Quote{} },
	QuoteItem{}.TableName():     func() SyncRecord { return &QuoteItem{} },
	CartItem{}.TableName():      func() SyncRecord { return &CartItem{} },
	SearchHistory{}.TableName(): func() SyncRecord { return &SearchHistory{} },
	SysUser{}.TableName():       func() SyncRecord { return &SysUser{} },
}

// NewRecord returns an empty record for table, or nil for unknown tables.
func NewRecord(table string) SyncRecord {
	f, ok := prototypes[table]
	if !ok {
		return nil
	}
	return f()
}
