package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
)

// Camera opens the rear-facing camera.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is a live video handle owned by one capture flow.
type Stream interface {
	Frame() (image.Image, error)
	Close() error
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locator reports the device position.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// Geocoder resolves coordinates to a street address, best effort.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Limits on the declared size of an uploaded frame, checked before decoding
// allocates the raster.
const (
	MaxFrameSide   = 8192
	MaxFramePixels = 40_000_000
)

// UploadCamera serves the frame the device uploaded as a single-frame stream.
type UploadCamera struct {
	Data []byte
}

func (c UploadCamera) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(c.Data) == 0 {
		return nil, fmt.Errorf("%w: no frame received", ErrCameraUnavailable)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(c.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxFrameSide || cfg.Height > MaxFrameSide ||
		cfg.Width*cfg.Height > MaxFramePixels {
		return nil, fmt.Errorf("%w: frame too large (%dx%d)", ErrCameraUnavailable, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(c.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	return &stillStream{frame: img}, nil
}

type stillStream struct {
	mu     sync.Mutex
	frame  image.Image
	closed bool
}

func (s *stillStream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrNotStreaming
	}
	return s.frame, nil
}

func (s *stillStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.frame = nil
	return nil
}

// StaticLocator answers with what the device sent along with the photo.
// Err is returned as is, e.g. ErrLocationDenied.
type StaticLocator struct {
	Coords *Coordinates
	Err    error
}

func (l StaticLocator) Locate(ctx context.Context) (Coordinates, error) {
	if l.Err != nil {
		return Coordinates{}, l.Err
	}
	if l.Coords == nil {
		return Coordinates{}, ErrLocationDenied
	}
	return *l.Coords, nil
}
