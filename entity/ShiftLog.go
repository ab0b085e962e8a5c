package entity

import "time"

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

// Label is the status text used in spreadsheets.
func (s ShiftStatus) Label() string {
	if s == ShiftClosed {
		return "Fechado"
	}
	return "Aberto"
}

// Evidence is one odometer reading with its photo. A log holds it by pointer so the
// reading, time, photo and location are either all present or all absent.
type Evidence struct {
	Km       float64   `json:"km"`
	Time     time.Time `json:"time"`
	Photo    []byte    `json:"photo"` // JPEG, base64 in JSON
	Location string    `json:"location"`
}

// ShiftLog is one rider's one calendar day.
type ShiftLog struct {
	ID       string      `json:"id"`
	UserID   string      `json:"userId"`
	UserName string      `json:"userName"` // copied at creation
	Date     string      `json:"date"`     // YYYY-MM-DD, device local
	Start    *Evidence   `json:"start,omitempty"`
	End      *Evidence   `json:"end,omitempty"`
	Status   ShiftStatus `json:"status"`
}

// Distance returns end - start. ok is false while either reading is missing.
func (l ShiftLog) Distance() (km float64, ok bool) {
	if l.Start == nil || l.End == nil {
		return 0, false
	}
	return l.End.Km - l.Start.Km, true
}
