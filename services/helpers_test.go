package services

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/luiz3283/HELP-PRO/capture"
	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	logs   *repository.ShiftLogRepository
	riders *repository.RiderRepository
	events *recorder
	shifts *ShiftService
	now    time.Time
}

type recorder struct {
	mu     sync.Mutex
	events []ShiftEvent
}

func (r *recorder) Publish(evt ShiftEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.KVEntry{}))

	kv := repository.NewKVRepository(db)
	env := &testEnv{
		logs:   repository.NewShiftLogRepository(kv),
		riders: repository.NewRiderRepository(kv),
		events: &recorder{},
		now:    time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, env.riders.UpsertRider(entity.Rider{
		ID: "joao", Name: "João Silva", Username: "joao", Role: entity.RoleMotoboy, VehiclePlate: "ABC-1234",
	}))
	env.shifts = NewShiftService(env.logs, env.riders, env.events, zap.NewNop(), time.UTC)
	env.shifts.Now = func() time.Time { return env.now }
	return env
}

func artifact(at time.Time, location string) *capture.Artifact {
	return &capture.Artifact{Photo: []byte{0xff, 0xd8, 0xff, byte(at.Hour())}, Location: location, CapturedAt: at}
}

func pngFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 90, G: 90, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// failingStore refuses every write.
type failingStore struct {
	*repository.ShiftLogRepository
}

func (failingStore) Upsert(entity.ShiftLog) error { return errors.New("quota exceeded") }
