package services

import (
	"bytes"
	"context"
	"image/jpeg"
	"testing"

	"github.com/luiz3283/HELP-PRO/capture"
	"github.com/luiz3283/HELP-PRO/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCaptureService(t *testing.T, env *testEnv) *CaptureService {
	t.Helper()
	hint := func(context.Context, []byte) (float64, bool) { return 1234, true }
	return NewCaptureService(env.shifts, nil, hint, 0, zap.NewNop())
}

func TestCaptureThenConfirmOpensDay(t *testing.T) {
	env := newTestEnv(t)
	svc := newCaptureService(t, env)

	res, err := svc.Capture(context.Background(), "joao", CaptureInput{
		Photo:   pngFrame(t),
		Locator: capture.StaticLocator{Coords: &capture.Coordinates{Lat: -23.55052, Lng: -46.633308}},
	})
	require.NoError(t, err)
	assert.Equal(t, "-23.55052, -46.63331", res.Location)
	require.NotNil(t, res.HintKm)
	assert.Equal(t, 1234.0, *res.HintKm)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Photo))
	require.NoError(t, err)
	assert.Equal(t, capture.FrameWidth, cfg.Width)
	assert.Equal(t, capture.FrameHeight, cfg.Height)

	_, ok := svc.Pending("joao")
	require.True(t, ok)

	l, err := svc.Confirm("joao", "1000")
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftOpen, l.Status)
	assert.Equal(t, res.Photo, l.Start.Photo)
	assert.Equal(t, res.Location, l.Start.Location)

	_, ok = svc.Pending("joao")
	assert.False(t, ok, "pending capture is consumed")
}

func TestConfirmWithoutCapture(t *testing.T) {
	env := newTestEnv(t)
	svc := newCaptureService(t, env)
	_, err := svc.Confirm("joao", "1000")
	assert.ErrorIs(t, err, ErrNoPendingCapture)
}

func TestConfirmKeepsCaptureOnBadReading(t *testing.T) {
	env := newTestEnv(t)
	svc := newCaptureService(t, env)
	_, err := svc.Capture(context.Background(), "joao", CaptureInput{Photo: pngFrame(t)})
	require.NoError(t, err)

	_, err = svc.Confirm("joao", "abc")
	require.ErrorIs(t, err, ErrValidation)
	art, ok := svc.Pending("joao")
	require.True(t, ok)
	assert.Equal(t, capture.LocationUnsupported, art.Location)

	_, err = svc.Confirm("joao", "10")
	require.NoError(t, err)
}

func TestCaptureRejectsUnreadableFrame(t *testing.T) {
	env := newTestEnv(t)
	svc := newCaptureService(t, env)
	_, err := svc.Capture(context.Background(), "joao", CaptureInput{Photo: []byte("not an image")})
	require.ErrorIs(t, err, capture.ErrCameraUnavailable)
	_, ok := svc.Pending("joao")
	assert.False(t, ok)
}

func TestNewerCaptureReplacesPending(t *testing.T) {
	env := newTestEnv(t)
	svc := newCaptureService(t, env)
	ctx := context.Background()

	_, err := svc.Capture(ctx, "joao", CaptureInput{Photo: pngFrame(t), Locator: capture.StaticLocator{}})
	require.NoError(t, err)
	_, err = svc.Capture(ctx, "joao", CaptureInput{
		Photo:   pngFrame(t),
		Locator: capture.StaticLocator{Coords: &capture.Coordinates{Lat: 1, Lng: 2}},
	})
	require.NoError(t, err)

	art, ok := svc.Pending("joao")
	require.True(t, ok)
	assert.Equal(t, "1.00000, 2.00000", art.Location)

	assert.True(t, svc.Discard("joao"))
	assert.False(t, svc.Discard("joao"))
}

func TestConfirmOnFinishedDayDropsCapture(t *testing.T) {
	env := newTestEnv(t)
	svc := newCaptureService(t, env)
	ctx := context.Background()
	for _, km := range []string{"1000", "1050"} {
		_, err := svc.Capture(ctx, "joao", CaptureInput{Photo: pngFrame(t)})
		require.NoError(t, err)
		_, err = svc.Confirm("joao", km)
		require.NoError(t, err)
	}

	_, err := svc.Capture(ctx, "joao", CaptureInput{Photo: pngFrame(t)})
	require.NoError(t, err)
	_, err = svc.Confirm("joao", "1040")
	require.ErrorIs(t, err, ErrDayFinished)
	_, ok := svc.Pending("joao")
	assert.False(t, ok)
}

// upsertHook runs fn before each write reaches the store.
type upsertHook struct {
	ShiftStore
	fn func()
}

func (h upsertHook) Upsert(l entity.ShiftLog) error {
	h.fn()
	return h.ShiftStore.Upsert(l)
}

func TestConfirmKeepsCaptureTakenDuringSubmit(t *testing.T) {
	env := newTestEnv(t)
	svc := newCaptureService(t, env)
	ctx := context.Background()

	_, err := svc.Capture(ctx, "joao", CaptureInput{Photo: pngFrame(t)})
	require.NoError(t, err)

	once := false
	env.shifts.Store = upsertHook{ShiftStore: env.logs, fn: func() {
		if once {
			return
		}
		once = true
		_, err := svc.Capture(ctx, "joao", CaptureInput{
			Photo:   pngFrame(t),
			Locator: capture.StaticLocator{Coords: &capture.Coordinates{Lat: 3, Lng: 4}},
		})
		require.NoError(t, err)
	}}

	_, err = svc.Confirm("joao", "1000")
	require.NoError(t, err)

	art, ok := svc.Pending("joao")
	require.True(t, ok, "capture taken while the first was being saved is kept")
	assert.Equal(t, "3.00000, 4.00000", art.Location)
}
