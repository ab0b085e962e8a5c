package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type State int

const (
	StateIdle State = iota
	StateStreaming
	StateCaptured
	StateError
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "STREAMING"
	case StateCaptured:
		return "CAPTURED"
	case StateError:
		return "ERROR"
	default:
		return "IDLE"
	}
}

// Artifact is the evidence produced by one capture.
type Artifact struct {
	Photo      []byte // annotated JPEG
	Location   string
	CapturedAt time.Time
}

type Options struct {
	Camera   Camera
	Locator  Locator  // nil means geolocation is not supported
	Geocoder Geocoder // nil skips reverse geocoding
	Logger   *zap.Logger

	// GeocodeTimeout bounds the address lookup. Zero means 5s.
	GeocodeTimeout time.Duration
	Now            func() time.Time
	Zone           *time.Location
}

// Unit drives one camera through IDLE -> STREAMING -> CAPTURED | ERROR.
type Unit struct {
	camera         Camera
	locator        Locator
	geocoder       Geocoder
	log            *zap.Logger
	geocodeTimeout time.Duration
	now            func() time.Time
	zone           *time.Location

	mu     sync.Mutex
	state  State
	stream Stream
	err    error
}

func NewUnit(opts Options) *Unit {
	u := &Unit{
		camera:         opts.Camera,
		locator:        opts.Locator,
		geocoder:       opts.Geocoder,
		log:            opts.Logger,
		geocodeTimeout: opts.GeocodeTimeout,
		now:            opts.Now,
		zone:           opts.Zone,
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	if u.geocodeTimeout <= 0 {
		u.geocodeTimeout = 5 * time.Second
	}
	if u.now == nil {
		u.now = time.Now
	}
	if u.zone == nil {
		u.zone = time.Local
	}
	return u
}

func (u *Unit) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Err is the failure that put the unit in ERROR.
func (u *Unit) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// AcquireLocation never fails; it only degrades the text it returns.
func (u *Unit) AcquireLocation(ctx context.Context) string {
	if u.locator == nil {
		return LocationUnsupported
	}
	c, err := u.locator.Locate(ctx)
	if err != nil {
		u.log.Warn("location unavailable", zap.Error(err))
		if errors.Is(err, ErrLocationUnsupported) {
			return LocationUnsupported
		}
		return LocationUnavailable
	}

	coords := fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lng)
	if u.geocoder == nil {
		return coords
	}
	gctx, cancel := context.WithTimeout(ctx, u.geocodeTimeout)
	defer cancel()
	addr, err := u.geocoder.Reverse(gctx, c.Lat, c.Lng)
	if err != nil {
		u.log.Warn("reverse geocoding failed", zap.Error(err), zap.String("coords", coords))
		return coords
	}
	if addr == "" {
		return coords
	}
	return addr
}

// BeginStream opens the camera. Failure leaves the unit in ERROR with an error
// wrapping ErrCameraUnavailable.
func (u *Unit) BeginStream(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateStreaming || u.stream != nil {
		return ErrCaptureInProgress
	}
	if u.camera == nil {
		return u.failLocked(fmt.Errorf("%w: no camera", ErrCameraUnavailable))
	}
	s, err := u.camera.Open(ctx)
	if err != nil {
		if !errors.Is(err, ErrCameraUnavailable) {
			err = fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		}
		return u.failLocked(err)
	}
	u.stream = s
	u.state = StateStreaming
	u.err = nil
	return nil
}

// Retry reopens the camera after an ERROR.
func (u *Unit) Retry(ctx context.Context) error {
	u.EndStream()
	return u.BeginStream(ctx)
}

// EndStream releases the camera. Safe to call on every exit path.
func (u *Unit) EndStream() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.releaseLocked()
	if u.state == StateStreaming {
		u.state = StateIdle
	}
}

// Cancel aborts the flow before an artifact is produced.
func (u *Unit) Cancel() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.releaseLocked()
	u.state = StateIdle
	u.err = nil
}

// Capture composites the current frame with the timestamp and location and stops the stream.
func (u *Unit) Capture(location string) (Artifact, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != StateStreaming || u.stream == nil {
		return Artifact{}, ErrNotStreaming
	}

	frame, err := u.stream.Frame()
	if err != nil {
		u.releaseLocked()
		return Artifact{}, u.failLocked(fmt.Errorf("%w: %v", ErrCameraUnavailable, err))
	}
	at := u.now().In(u.zone)
	img, _, err := annotate(frame, at.Format(StampLayout), location)
	if err != nil {
		u.releaseLocked()
		return Artifact{}, u.failLocked(err)
	}
	photo, err := encodeJPEG(img)
	u.releaseLocked()
	if err != nil {
		return Artifact{}, u.failLocked(err)
	}
	u.state = StateCaptured
	return Artifact{Photo: photo, Location: location, CapturedAt: at}, nil
}

// Run performs a whole flow. Location and camera are acquired concurrently; the
// stream is released whatever the outcome.
func (u *Unit) Run(ctx context.Context) (Artifact, error) {
	defer u.EndStream()

	var location string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		location = u.AcquireLocation(gctx)
		return nil
	})
	g.Go(func() error {
		return u.BeginStream(gctx)
	})
	if err := g.Wait(); err != nil {
		return Artifact{}, err
	}
	if err := ctx.Err(); err != nil {
		u.Cancel()
		return Artifact{}, err
	}
	return u.Capture(location)
}

func (u *Unit) releaseLocked() {
	if u.stream == nil {
		return
	}
	if err := u.stream.Close(); err != nil {
		u.log.Warn("camera release failed", zap.Error(err))
	}
	u.stream = nil
}

func (u *Unit) failLocked(err error) error {
	u.state = StateError
	u.err = err
	return err
}
