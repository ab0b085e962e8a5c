package services

import (
	"time"

	"github.com/luiz3283/HELP-PRO/entity"
)

// ShiftStore is the shift log collection. Upsert is the only write path of the lifecycle.
type ShiftStore interface {
	ListAll() ([]entity.ShiftLog, error)
	FindOpen(riderID, date string) (*entity.ShiftLog, error)
	FindForDay(riderID, date string) (*entity.ShiftLog, error)
	Upsert(log entity.ShiftLog) error
	Delete(id string) error
}

type RiderStore interface {
	ListRiders() ([]entity.Rider, error)
	FindRider(id string) (*entity.Rider, error)
	FindRiderByUsername(username string) (*entity.Rider, error)
	UpsertRider(rd entity.Rider) error
	DeleteRider(id string) error
}

type ShiftEventType string

const (
	ShiftOpened ShiftEventType = "shift_opened"
	ShiftClosed ShiftEventType = "shift_closed"
)

type ShiftEvent struct {
	Type      ShiftEventType `json:"type"`
	LogID     string         `json:"logId"`
	RiderID   string         `json:"riderId"`
	RiderName string         `json:"riderName"`
	Date      string         `json:"date"`
	Km        float64        `json:"km"`
	Distance  *float64       `json:"distance,omitempty"`
	At        time.Time      `json:"at"`
}

// EventNotifier receives lifecycle events, e.g. the admin websocket feed.
type EventNotifier interface {
	Publish(evt ShiftEvent)
}
