package repository

import (
	"errors"
	"fmt"

	"github.com/luiz3283/HELP-PRO/entity"

	"gorm.io/gorm"
)

// ErrIntegrity means the collection holds more than one OPEN log for a rider and day.
var ErrIntegrity = errors.New("data integrity error")

type ShiftLogRepository struct{ KV *KVRepository }

func NewShiftLogRepository(kv *KVRepository) *ShiftLogRepository {
	return &ShiftLogRepository{KV: kv}
}

// ListAll returns every log in insertion order.
func (r *ShiftLogRepository) ListAll() ([]entity.ShiftLog, error) {
	return readList[entity.ShiftLog](r.KV, LogsKey)
}

func (r *ShiftLogRepository) FindOpen(riderID, date string) (*entity.ShiftLog, error) {
	logs, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	return findOpen(logs, riderID, date)
}

func findOpen(logs []entity.ShiftLog, riderID, date string) (*entity.ShiftLog, error) {
	var found *entity.ShiftLog
	for i := range logs {
		l := logs[i]
		if l.UserID != riderID || l.Date != date || l.Status != entity.ShiftOpen {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: rider %s has %s open twice", ErrIntegrity, riderID, date)
		}
		found = &l
	}
	return found, nil
}

// FindForDay returns the OPEN log for the day, or the CLOSED one when the day is finished.
func (r *ShiftLogRepository) FindForDay(riderID, date string) (*entity.ShiftLog, error) {
	logs, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	open, err := findOpen(logs, riderID, date)
	if err != nil || open != nil {
		return open, err
	}
	for i := range logs {
		if logs[i].UserID == riderID && logs[i].Date == date && logs[i].Status == entity.ShiftClosed {
			l := logs[i]
			return &l, nil
		}
	}
	return nil, nil
}

// Upsert inserts a new log or replaces the one with the same id in place.
func (r *ShiftLogRepository) Upsert(log entity.ShiftLog) error {
	return updateList(r.KV, LogsKey, func(logs []entity.ShiftLog) ([]entity.ShiftLog, error) {
		for i := range logs {
			if logs[i].ID == log.ID {
				logs[i] = log
				return logs, nil
			}
		}
		return append(logs, log), nil
	})
}

// Delete is the admin escape hatch; it is not part of the shift lifecycle.
func (r *ShiftLogRepository) Delete(id string) error {
	return updateList(r.KV, LogsKey, func(logs []entity.ShiftLog) ([]entity.ShiftLog, error) {
		for i := range logs {
			if logs[i].ID == id {
				return append(logs[:i], logs[i+1:]...), nil
			}
		}
		return nil, gorm.ErrRecordNotFound
	})
}
