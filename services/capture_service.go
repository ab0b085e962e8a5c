package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/luiz3283/HELP-PRO/capture"
	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/pkg/odometer"

	"go.uber.org/zap"
)

type CaptureInput struct {
	Photo   []byte          // raw frame from the device
	Locator capture.Locator // nil when the device has no geolocation
}

type CaptureResult struct {
	Location   string    `json:"location"`
	CapturedAt time.Time `json:"capturedAt"`
	Photo      []byte    `json:"-"`
	HintKm     *float64  `json:"hintKm,omitempty"`
}

// CaptureService keeps at most one pending artifact per rider between
// "take photo" and "confirm km".
type CaptureService struct {
	Shifts         *ShiftService
	Geocoder       capture.Geocoder
	Hint           odometer.Reader
	GeocodeTimeout time.Duration
	Log            *zap.Logger

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingCapture
}

// pendingCapture tags an artifact so Confirm only drops the one it submitted.
type pendingCapture struct {
	art capture.Artifact
	seq uint64
}

func NewCaptureService(shifts *ShiftService, geocoder capture.Geocoder, hint odometer.Reader, geocodeTimeout time.Duration, log *zap.Logger) *CaptureService {
	if hint == nil {
		hint = odometer.None
	}
	return &CaptureService{
		Shifts:         shifts,
		Geocoder:       geocoder,
		Hint:           hint,
		GeocodeTimeout: geocodeTimeout,
		Log:            log,
		pending:        make(map[string]pendingCapture),
	}
}

// Capture annotates the uploaded frame and keeps it as the rider's pending evidence.
// A newer capture replaces an older one.
func (s *CaptureService) Capture(ctx context.Context, riderID string, in CaptureInput) (*CaptureResult, error) {
	unit := capture.NewUnit(capture.Options{
		Camera:         capture.UploadCamera{Data: in.Photo},
		Locator:        in.Locator,
		Geocoder:       s.Geocoder,
		Logger:         s.Log,
		GeocodeTimeout: s.GeocodeTimeout,
		Now:            s.Shifts.Now,
		Zone:           s.Shifts.Zone,
	})
	art, err := unit.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.seq++
	s.pending[riderID] = pendingCapture{art: art, seq: s.seq}
	s.mu.Unlock()

	res := &CaptureResult{Location: art.Location, CapturedAt: art.CapturedAt, Photo: art.Photo}
	if km, ok := s.Hint(ctx, art.Photo); ok {
		res.HintKm = &km
	} else {
		s.Log.Debug("no odometer hint", zap.String("rider", riderID))
	}
	return res, nil
}

func (s *CaptureService) Pending(riderID string) (capture.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[riderID]
	return p.art, ok
}

// Discard drops the pending capture. It reports whether there was one.
func (s *CaptureService) Discard(riderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[riderID]
	delete(s.pending, riderID)
	return ok
}

// Confirm submits the pending capture with the typed reading. The capture survives
// validation and persistence failures so the rider can fix the km or retry.
func (s *CaptureService) Confirm(riderID, reading string) (*entity.ShiftLog, error) {
	s.mu.Lock()
	p, ok := s.pending[riderID]
	s.mu.Unlock()

	var art *capture.Artifact
	if ok {
		art = &p.art
	}
	l, err := s.Shifts.Submit(riderID, art, reading)
	if ok && (err == nil || errors.Is(err, ErrDayFinished)) {
		s.mu.Lock()
		// a newer capture taken meanwhile stays pending
		if cur, still := s.pending[riderID]; still && cur.seq == p.seq {
			delete(s.pending, riderID)
		}
		s.mu.Unlock()
	}
	return l, err
}
