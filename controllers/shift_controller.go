package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/luiz3283/HELP-PRO/capture"
	"github.com/luiz3283/HELP-PRO/pkg/resp"
	"github.com/luiz3283/HELP-PRO/services"
	"github.com/luiz3283/HELP-PRO/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxPhotoBytes bounds an uploaded dashboard frame.
const maxPhotoBytes = 10 << 20

// ShiftController serves the rider panel.
type ShiftController struct {
	Shifts   *services.ShiftService
	Captures *services.CaptureService
	Reports  *services.ReportService
}

func NewShiftController(shifts *services.ShiftService, captures *services.CaptureService, reports *services.ReportService) *ShiftController {
	return &ShiftController{Shifts: shifts, Captures: captures, Reports: reports}
}

type SubmitRequest struct {
	// Km is accepted as "1050", "1050,5" or a JSON number.
	Km json.RawMessage `json:"km"`
}

// GET /rider/today
func (sc *ShiftController) Today(c *gin.Context) {
	uid := utils.CurrentRiderID(c)
	st, err := sc.Shifts.Today(uid)
	if err != nil {
		renderError(c, err)
		return
	}
	_, pending := sc.Captures.Pending(uid)
	resp.OK(c, gin.H{"state": st.State, "date": st.Date, "log": st.Log, "pendingCapture": pending})
}

// POST /rider/captures
func (sc *ShiftController) Capture(c *gin.Context) {
	photo, err := readPhoto(c)
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	locator, err := locatorFrom(c)
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	res, err := sc.Captures.Capture(c.Request.Context(), utils.CurrentRiderID(c), services.CaptureInput{
		Photo:   photo,
		Locator: locator,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	resp.Created(c, gin.H{
		"location":   res.Location,
		"capturedAt": res.CapturedAt,
		"hintKm":     res.HintKm,
		"preview":    utils.JPEGDataURL(res.Photo),
	})
}

// DELETE /rider/captures
func (sc *ShiftController) Discard(c *gin.Context) {
	resp.OK(c, gin.H{"discarded": sc.Captures.Discard(utils.CurrentRiderID(c))})
}

// POST /rider/shifts
func (sc *ShiftController) Submit(c *gin.Context) {
	uid := utils.CurrentRiderID(c)
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	km, err := kmReading(req.Km)
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	l, err := sc.Captures.Confirm(uid, km)
	if errors.Is(err, services.ErrDayFinished) {
		st, err := sc.Shifts.Today(uid)
		if err != nil {
			renderError(c, err)
			return
		}
		resp.OK(c, gin.H{"state": st.State, "date": st.Date, "log": st.Log, "message": "day already finished"})
		return
	}
	if err != nil {
		renderError(c, err)
		return
	}
	resp.OK(c, gin.H{"state": string(l.Status), "date": l.Date, "log": l})
}

// GET /rider/export?month=YYYY-MM
func (sc *ShiftController) Export(c *gin.Context) {
	writeRiderReport(c, sc.Reports, utils.CurrentRiderID(c), c.Query("month"))
}

func writeRiderReport(c *gin.Context, reports *services.ReportService, riderID, month string) {
	rd, logs, err := reports.RiderMonthly(riderID, month)
	if err != nil {
		renderError(c, err)
		return
	}
	if month == "" {
		month = logs[0].Date[:7]
	}
	var buf bytes.Buffer
	if err := services.WriteSpreadsheet(&buf, "Relatorio", services.BuildTabularReport(logs, reports.Zone)); err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.Attachment(c, xlsxContentType, services.MonthlyReportFileName(rd.Name, month), buf.Bytes())
}

// kmReading returns the typed reading as text. A JSON string is unescaped, a JSON
// number is kept as written, null or absent is empty.
func kmReading(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", errors.New("km must be a string or a number")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("km must be a string or a number")
	}
	return n.String(), nil
}

// readPhoto takes the multipart "photo" file, or a "photoBase64" data URL field.
func readPhoto(c *gin.Context) ([]byte, error) {
	if fh, err := c.FormFile("photo"); err == nil {
		if fh.Size > maxPhotoBytes {
			return nil, errors.New("photo too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxPhotoBytes))
	}
	if s := c.PostForm("photoBase64"); s != "" {
		return utils.DecodeDataURL(s)
	}
	return nil, errors.New("photo is required")
}

// locatorFrom turns what the device reported about its position into a Locator.
// geo=unsupported means no geolocation API; geo=denied or missing coordinates
// means the lookup failed.
func locatorFrom(c *gin.Context) (capture.Locator, error) {
	switch c.PostForm("geo") {
	case "unsupported":
		return nil, nil
	case "denied":
		return capture.StaticLocator{Err: capture.ErrLocationDenied}, nil
	}
	lat, lng := c.PostForm("lat"), c.PostForm("lng")
	if lat == "" || lng == "" {
		return capture.StaticLocator{}, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, errors.New("lat must be a number")
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, errors.New("lng must be a number")
	}
	return capture.StaticLocator{Coords: &capture.Coordinates{Lat: la, Lng: ln}}, nil
}
