package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/luiz3283/HELP-PRO/entity"

	"gorm.io/gorm"
)

// TotalMarker fills the Date cell of the totals row. It can never look like YYYY-MM-DD.
const TotalMarker = "TOTAL"

// Filter predicates are ANDed; empty fields match everything.
type Filter struct {
	Date    string // YYYY-MM-DD
	Month   string // YYYY-MM
	RiderID string
	Text    string // rider name or date, case-insensitive
}

func (f Filter) match(l entity.ShiftLog) bool {
	if f.Date != "" && l.Date != f.Date {
		return false
	}
	if f.Month != "" && !strings.HasPrefix(l.Date, f.Month) {
		return false
	}
	if f.RiderID != "" && l.UserID != f.RiderID {
		return false
	}
	if f.Text != "" {
		q := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(l.UserName), q) && !strings.Contains(l.Date, q) {
			return false
		}
	}
	return true
}

// FilterLogs keeps the order of logs.
func FilterLogs(logs []entity.ShiftLog, f Filter) []entity.ShiftLog {
	out := make([]entity.ShiftLog, 0, len(logs))
	for _, l := range logs {
		if f.match(l) {
			out = append(out, l)
		}
	}
	return out
}

// AggregateDistance sums end - start over logs with both readings. The others are skipped.
func AggregateDistance(logs []entity.ShiftLog) float64 {
	total := 0.0
	for _, l := range logs {
		if d, ok := l.Distance(); ok {
			total += d
		}
	}
	return total
}

// ReportRow is one spreadsheet line. Nil numbers render as blank cells.
type ReportRow struct {
	Date          string
	Rider         string
	StartKm       *float64
	StartTime     string
	StartLocation string
	EndKm         *float64
	EndTime       string
	EndLocation   string
	TotalKm       *float64
	Status        string
}

func (r ReportRow) IsTotal() bool { return r.Date == TotalMarker }

// BuildTabularReport returns one row per log followed by the totals row.
func BuildTabularReport(logs []entity.ShiftLog, zone *time.Location) []ReportRow {
	if zone == nil {
		zone = time.Local
	}
	rows := make([]ReportRow, 0, len(logs)+1)
	for _, l := range logs {
		row := ReportRow{Date: l.Date, Rider: l.UserName, Status: l.Status.Label()}
		if l.Start != nil {
			km := l.Start.Km
			row.StartKm = &km
			row.StartTime = l.Start.Time.In(zone).Format("15:04")
			row.StartLocation = l.Start.Location
		}
		if l.End != nil {
			km := l.End.Km
			row.EndKm = &km
			row.EndTime = l.End.Time.In(zone).Format("15:04")
			row.EndLocation = l.End.Location
		}
		if d, ok := l.Distance(); ok {
			row.TotalKm = &d
		}
		rows = append(rows, row)
	}
	total := AggregateDistance(logs)
	rows = append(rows, ReportRow{Date: TotalMarker, TotalKm: &total})
	return rows
}

type ArchiveEntry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// PackagePhotoArchive names photos {date}_{HHhMM}_{inicio|fim}.jpg. Two photos taken
// in the same minute get a numeric suffix.
func PackagePhotoArchive(logs []entity.ShiftLog, zone *time.Location) ([]ArchiveEntry, error) {
	if zone == nil {
		zone = time.Local
	}
	var entries []ArchiveEntry
	seen := map[string]int{}
	add := func(l entity.ShiftLog, ev *entity.Evidence, tag string) {
		if ev == nil || len(ev.Photo) == 0 {
			return
		}
		base := fmt.Sprintf("%s_%s_%s", l.Date, ev.Time.In(zone).Format("15h04"), tag)
		seen[base]++
		name := base + ".jpg"
		if n := seen[base]; n > 1 {
			name = fmt.Sprintf("%s_%d.jpg", base, n)
		}
		entries = append(entries, ArchiveEntry{Name: name, Data: ev.Photo, Modified: ev.Time})
	}
	for _, l := range logs {
		add(l, l.Start, "inicio")
		add(l, l.End, "fim")
	}
	if len(entries) == 0 {
		return nil, ErrNoPhotos
	}
	return entries, nil
}

// ReportService reads the store and feeds the exporters. It never writes.
type ReportService struct {
	Store  ShiftStore
	Riders RiderStore
	Now    func() time.Time
	Zone   *time.Location
}

func NewReportService(store ShiftStore, riders RiderStore, zone *time.Location) *ReportService {
	if zone == nil {
		zone = time.Local
	}
	return &ReportService{Store: store, Riders: riders, Now: time.Now, Zone: zone}
}

// Logs lists matching logs newest first, as the admin panel shows them.
func (s *ReportService) Logs(f Filter) ([]entity.ShiftLog, error) {
	all, err := s.Store.ListAll()
	if err != nil {
		return nil, persistence("load logs", err)
	}
	out := FilterLogs(all, f)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Export returns the matching logs sorted by date. No match is ErrNoLogs.
func (s *ReportService) Export(f Filter) ([]entity.ShiftLog, error) {
	all, err := s.Store.ListAll()
	if err != nil {
		return nil, persistence("load logs", err)
	}
	out := FilterLogs(all, f)
	if len(out) == 0 {
		return nil, ErrNoLogs
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// RiderMonthly is the per-rider monthly export.
func (s *ReportService) RiderMonthly(riderID, month string) (*entity.Rider, []entity.ShiftLog, error) {
	if month == "" {
		month = s.Now().In(s.Zone).Format("2006-01")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, nil, validationf("month must be YYYY-MM, got %q", month)
	}
	rd, err := s.Riders.FindRider(riderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrRiderNotFound
	}
	if err != nil {
		return nil, nil, persistence("load rider", err)
	}
	logs, err := s.Export(Filter{RiderID: riderID, Month: month})
	if err != nil {
		return rd, nil, err
	}
	return rd, logs, nil
}

// Photos is the archive for a filter. It separates "no logs" from "logs without photos".
func (s *ReportService) Photos(f Filter) ([]ArchiveEntry, error) {
	logs, err := s.Export(f)
	if err != nil {
		return nil, err
	}
	return PackagePhotoArchive(logs, s.Zone)
}

type Dashboard struct {
	TotalKm       float64 `json:"totalKm"`
	ActiveDrivers int     `json:"activeDrivers"`
	LogsToday     int     `json:"logsToday"`
}

func (s *ReportService) Dashboard() (Dashboard, error) {
	all, err := s.Store.ListAll()
	if err != nil {
		return Dashboard{}, persistence("load logs", err)
	}
	today := s.Now().In(s.Zone).Format(DateLayout)
	active := map[string]bool{}
	d := Dashboard{TotalKm: AggregateDistance(all)}
	for _, l := range all {
		if l.Date != today {
			continue
		}
		d.LogsToday++
		if l.Status == entity.ShiftOpen {
			active[l.UserID] = true
		}
	}
	d.ActiveDrivers = len(active)
	return d, nil
}
