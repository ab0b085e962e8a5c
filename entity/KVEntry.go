package entity

import "time"

// KVEntry holds one whole collection serialized as a JSON array.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     []byte `gorm:"type:blob"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }
