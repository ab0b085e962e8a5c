package capture

import "errors"

var (
	// ErrCameraUnavailable covers permission denied, no device and unreadable frames.
	// The caller offers retry or cancel.
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrCaptureInProgress = errors.New("a capture is already in progress")
	ErrNotStreaming      = errors.New("camera is not streaming")

	ErrLocationDenied      = errors.New("location permission denied")
	ErrLocationUnsupported = errors.New("geolocation not supported")
)

// Location texts used when no address can be produced.
const (
	LocationUnavailable = "Localização não disponível"
	LocationUnsupported = "Geolocalização não suportada"
)
