package services

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/luiz3283/HELP-PRO/capture"
	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// Day states shown to the rider.
const (
	DayNone   = "NONE"
	DayOpen   = "OPEN"
	DayClosed = "CLOSED"
)

type DayStatus struct {
	State string           `json:"state"`
	Date  string           `json:"date"`
	Log   *entity.ShiftLog `json:"log,omitempty"`
}

// ShiftService opens and closes the daily shift log.
type ShiftService struct {
	Store    ShiftStore
	Riders   RiderStore
	Notifier EventNotifier
	Log      *zap.Logger
	Now      func() time.Time
	Zone     *time.Location
}

func NewShiftService(store ShiftStore, riders RiderStore, notifier EventNotifier, log *zap.Logger, zone *time.Location) *ShiftService {
	if zone == nil {
		zone = time.Local
	}
	return &ShiftService{Store: store, Riders: riders, Notifier: notifier, Log: log, Now: time.Now, Zone: zone}
}

func (s *ShiftService) today() string {
	return s.Now().In(s.Zone).Format(DateLayout)
}

// ParseKm accepts "1050", " 1050.5 " and "1050,5". Negative values are rejected.
func ParseKm(reading string) (float64, error) {
	v := strings.TrimSpace(reading)
	if v == "" {
		return 0, ErrNoPendingCapture
	}
	km, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil || math.IsNaN(km) || math.IsInf(km, 0) {
		return 0, validationf("km must be a number, got %q", reading)
	}
	if km < 0 {
		return 0, validationf("km cannot be negative")
	}
	return km, nil
}

// Today reports whether the rider has not started, is on shift, or has finished the day.
func (s *ShiftService) Today(riderID string) (DayStatus, error) {
	day := s.today()
	l, err := s.Store.FindForDay(riderID, day)
	if err != nil {
		if errors.Is(err, repository.ErrIntegrity) {
			return DayStatus{}, err
		}
		return DayStatus{}, persistence("load today", err)
	}
	st := DayStatus{State: DayNone, Date: day, Log: l}
	if l != nil {
		st.State = string(l.Status)
	}
	return st, nil
}

// Submit opens today's log or closes the open one with the given evidence.
func (s *ShiftService) Submit(riderID string, art *capture.Artifact, reading string) (*entity.ShiftLog, error) {
	if art == nil || len(art.Photo) == 0 {
		return nil, ErrNoPendingCapture
	}
	km, err := ParseKm(reading)
	if err != nil {
		return nil, err
	}

	day := s.today()
	current, err := s.Store.FindForDay(riderID, day)
	if err != nil {
		if errors.Is(err, repository.ErrIntegrity) {
			return nil, err
		}
		return nil, persistence("load today", err)
	}

	ev := &entity.Evidence{Km: km, Time: art.CapturedAt, Photo: art.Photo, Location: art.Location}

	var next entity.ShiftLog
	var evtType ShiftEventType
	switch {
	case current == nil:
		rd, err := s.Riders.FindRider(riderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRiderNotFound
		}
		if err != nil {
			return nil, persistence("load rider", err)
		}
		next = entity.ShiftLog{
			ID:       uuid.NewString(),
			UserID:   rd.ID,
			UserName: rd.Name,
			Date:     day,
			Start:    ev,
			Status:   entity.ShiftOpen,
		}
		evtType = ShiftOpened

	case current.Status == entity.ShiftOpen:
		if km < current.Start.Km {
			return nil, validationf("end km %.1f is lower than start km %.1f", km, current.Start.Km)
		}
		next = *current
		next.End = ev
		next.Status = entity.ShiftClosed
		evtType = ShiftClosed

	default:
		return nil, ErrDayFinished
	}

	if err := s.Store.Upsert(next); err != nil {
		s.Log.Error("save shift log failed", zap.String("rider", riderID), zap.String("date", day), zap.Error(err))
		return nil, persistence("save shift log", err)
	}
	s.Log.Info("shift log saved",
		zap.String("rider", riderID),
		zap.String("date", day),
		zap.String("status", string(next.Status)),
		zap.Float64("km", km))
	s.publish(evtType, next, km)
	return &next, nil
}

func (s *ShiftService) publish(t ShiftEventType, l entity.ShiftLog, km float64) {
	if s.Notifier == nil {
		return
	}
	evt := ShiftEvent{Type: t, LogID: l.ID, RiderID: l.UserID, RiderName: l.UserName, Date: l.Date, Km: km, At: s.Now()}
	if d, ok := l.Distance(); ok {
		evt.Distance = &d
	}
	s.Notifier.Publish(evt)
}

// DeleteLog is the admin removal of a log. It bypasses the lifecycle rules.
func (s *ShiftService) DeleteLog(id string) error {
	err := s.Store.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLogNotFound
	}
	if err != nil {
		return persistence("delete log", err)
	}
	s.Log.Info("shift log deleted", zap.String("log", id))
	return nil
}
