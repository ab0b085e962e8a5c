package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/luiz3283/HELP-PRO/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixed keys of the persisted collections.
const (
	RidersKey = "motolog_users_v2"
	LogsKey   = "motolog_logs"
)

// KVRepository stores each collection as a single JSON array row.
// mu serializes read-modify-write cycles so a write is visible to the next read.
type KVRepository struct {
	DB *gorm.DB
	mu sync.Mutex
}

func NewKVRepository(db *gorm.DB) *KVRepository { return &KVRepository{DB: db} }

// get returns nil when the key was never written.
func (r *KVRepository) get(key string) ([]byte, error) {
	var row entity.KVEntry
	err := r.DB.Where(&entity.KVEntry{Key: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

func (r *KVRepository) put(key string, value []byte) error {
	row := entity.KVEntry{Key: key, Value: value}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func decodeList[T any](raw []byte) ([]T, error) {
	out := []T{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return out, nil
}

func readList[T any](r *KVRepository, key string) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, err := r.get(key)
	if err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

// updateList loads the collection, applies fn and writes the result back under one lock.
func updateList[T any](r *KVRepository, key string, fn func([]T) ([]T, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.get(key)
	if err != nil {
		return err
	}
	items, err := decodeList[T](raw)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	return r.put(key, data)
}
