package controllers_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/luiz3283/HELP-PRO/configs"
	"github.com/luiz3283/HELP-PRO/controllers"
	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/repository"
	"github.com/luiz3283/HELP-PRO/routes"
	"github.com/luiz3283/HELP-PRO/services"
	"github.com/luiz3283/HELP-PRO/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

type server struct {
	t          *testing.T
	r          *gin.Engine
	riderToken string
	adminToken string
	now        time.Time
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := configs.OpenDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	kv := repository.NewKVRepository(db)
	logs := repository.NewShiftLogRepository(kv)
	riderRepo := repository.NewRiderRepository(kv)

	s := &server{t: t, now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return s.now }

	log := zap.NewNop()
	hub := ws.NewShiftHub(log)
	shifts := services.NewShiftService(logs, riderRepo, hub, log, time.UTC)
	shifts.Now = clock
	captures := services.NewCaptureService(shifts, nil, nil, time.Second, log)
	reports := services.NewReportService(logs, riderRepo, time.UTC)
	reports.Now = clock
	riders := services.NewRiderService(riderRepo, secret, time.Hour)

	rider, err := riders.Register(services.RiderInput{Name: "joao", Password: "pw", VehiclePlate: "abc1234"})
	require.NoError(t, err)
	admin, err := riders.Register(services.RiderInput{Name: "chefe", Password: "pw", VehiclePlate: "ADM", Role: entity.RoleAdmin})
	require.NoError(t, err)
	s.riderToken, err = riders.IssueToken(rider)
	require.NoError(t, err)
	s.adminToken, err = riders.IssueToken(admin)
	require.NoError(t, err)

	s.r = gin.New()
	routes.RegisterRoutes(s.r, routes.Handlers{
		JWTSecret: secret,
		Auth:      controllers.NewAuthController(riders),
		Shifts:    controllers.NewShiftController(shifts, captures, reports),
		Admin:     controllers.NewAdminController(shifts, reports, riders),
		Hub:       hub,
	})
	return s
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (s *server) do(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	var env envelope
	if bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *server) capture(fields map[string]string, photo []byte) (*httptest.ResponseRecorder, envelope) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("photo", "frame.png")
	require.NoError(s.t, err)
	_, err = fw.Write(photo)
	require.NoError(s.t, err)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/rider/captures", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, s.riderToken)
}

func (s *server) submit(km string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(http.MethodPost, "/rider/shifts", bytes.NewBufferString(`{"km":`+km+`}`))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, s.riderToken)
}

func frame(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type dayState struct {
	State string           `json:"state"`
	Log   *entity.ShiftLog `json:"log"`
}

func TestShiftOpenThenClose(t *testing.T) {
	s := newServer(t)

	w, env := s.capture(map[string]string{"lat": "-23.5", "lng": "-46.6"}, frame(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var shot struct {
		Location string `json:"location"`
		Preview  string `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &shot))
	assert.Equal(t, "-23.50000, -46.60000", shot.Location)
	assert.Contains(t, shot.Preview, "data:image/jpeg;base64,")

	w, env = s.submit(`"1000"`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var st dayState
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "OPEN", st.State)

	s.now = s.now.Add(10 * time.Hour)
	w, _ = s.capture(map[string]string{"geo": "denied"}, frame(t))
	require.Equal(t, http.StatusCreated, w.Code)
	w, env = s.submit(`1050`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "CLOSED", st.State)
	require.NotNil(t, st.Log)
	assert.Equal(t, "Localização não disponível", st.Log.End.Location)
	d, ok := st.Log.Distance()
	require.True(t, ok)
	assert.Equal(t, 50.0, d)

	// finished day is a display state, not an error
	w, _ = s.capture(nil, frame(t))
	require.Equal(t, http.StatusCreated, w.Code)
	w, env = s.submit(`"1040"`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "CLOSED", st.State)
	assert.Equal(t, 1050.0, st.Log.End.Km)

	w, env = s.do(httptest.NewRequest(http.MethodGet, "/rider/today", nil), s.riderToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "CLOSED", st.State)
}

func TestSubmitErrors(t *testing.T) {
	s := newServer(t)

	w, _ := s.submit(`"1000"`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no pending capture")

	w, _ = s.capture(nil, []byte("garbage"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = s.capture(map[string]string{"geo": "unsupported"}, frame(t))
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.submit(`"mil"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.submit(`"1000"`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.capture(nil, frame(t))
	require.Equal(t, http.StatusCreated, w.Code)
	w, env := s.submit(`"900"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "lower than start")

	w, env = s.do(httptest.NewRequest(http.MethodDelete, "/rider/captures", nil), s.riderToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"discarded":true}`, string(env.Data))
}

func TestSubmitDecodesKmField(t *testing.T) {
	s := newServer(t)
	w, _ := s.capture(nil, frame(t))
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.submit(`true`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.submit(`"NaN"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.submit(`"\u0031000"`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var st dayState
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "OPEN", st.State)
	assert.Equal(t, 1000.0, st.Log.Start.Km)

	w, _ = s.capture(nil, frame(t))
	require.Equal(t, http.StatusCreated, w.Code)
	w, env = s.submit(`1.0125e3`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, 1012.5, st.Log.End.Km)
}

func TestAdminEndpoints(t *testing.T) {
	s := newServer(t)
	w, _ := s.capture(nil, frame(t))
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.submit(`"1000"`)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"totalKm":0,"activeDrivers":1,"logsToday":1}`, string(env.Data))

	w, env = s.do(httptest.NewRequest(http.MethodGet, "/admin/logs?month=2024-06&q=JOAO", nil), s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/admin/export/xlsx?month=2024-06", nil), s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "help-pro-geral-2024-06-01.xlsx")

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/admin/export/photos", nil), s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))

	w, env = s.do(httptest.NewRequest(http.MethodGet, "/admin/export/photos?month=2023-01", nil), s.adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no logs found for this period", env.Error)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), s.riderToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRiderCRUD(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/riders",
		bytes.NewBufferString(`{"name":"Maria Souza","password":"x","vehiclePlate":"xyz9876"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := s.do(req, s.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rd entity.Rider
	require.NoError(t, json.Unmarshal(env.Data, &rd))
	assert.Equal(t, "mariasouza", rd.Username)
	assert.Equal(t, "XYZ9876", rd.VehiclePlate)
	assert.Empty(t, rd.Password)

	req = httptest.NewRequest(http.MethodPut, "/admin/riders/"+rd.ID,
		bytes.NewBufferString(`{"name":"Maria S.","username":"maria","vehiclePlate":"xyz9876"}`))
	req.Header.Set("Content-Type", "application/json")
	w, _ = s.do(req, s.adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	login := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"maria","password":"x"}`))
	login.Header.Set("Content-Type", "application/json")
	w, _ = s.do(login, "")
	assert.Equal(t, http.StatusOK, w.Code, "password kept on edit")

	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/riders/"+rd.ID, nil), s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/riders/"+rd.ID, nil), s.adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewBufferString(`{"name":"Ana Lima","password":"123","vehiclePlate":"aaa1111"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := s.do(req, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Token string       `json:"token"`
		Rider entity.Rider `json:"rider"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleMotoboy, out.Rider.Role)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/rider/today", nil), out.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	bad := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"analima","password":"nope"}`))
	bad.Header.Set("Content-Type", "application/json")
	w, _ = s.do(bad, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
