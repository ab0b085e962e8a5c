package services

import (
	"archive/zip"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ReportHeader is the fixed first row of every spreadsheet.
var ReportHeader = []string{
	"Date", "Rider", "Start KM", "Start Time", "Start Location",
	"End KM", "End Time", "End Location", "Total KM", "Status",
}

func cellNumber(v *float64) any {
	if v == nil {
		return ""
	}
	return math.Round(*v*10) / 10
}

// WriteSpreadsheet writes rows as a single-sheet xlsx workbook.
func WriteSpreadsheet(w io.Writer, sheet string, rows []ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := make([]any, len(ReportHeader))
	for i, h := range ReportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.Date, r.Rider, cellNumber(r.StartKm), r.StartTime, r.StartLocation,
			cellNumber(r.EndKm), r.EndTime, r.EndLocation, cellNumber(r.TotalKm), r.Status,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// WriteArchive writes entries into a zip bundle.
func WriteArchive(w io.Writer, entries []ArchiveEntry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: e.Modified})
		if err != nil {
			return err
		}
		if _, err := fw.Write(e.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}

var whitespace = regexp.MustCompile(`\s+`)

// MonthlyReportFileName gives "Relatorio-Joao_Silva-2024-06.xlsx".
func MonthlyReportFileName(riderName, month string) string {
	return "Relatorio-" + whitespace.ReplaceAllString(strings.TrimSpace(riderName), "_") + "-" + month + ".xlsx"
}

func FleetReportFileName(now time.Time) string {
	return "help-pro-geral-" + now.Format(DateLayout) + ".xlsx"
}

func PhotoArchiveFileName(now time.Time) string {
	return "help-pro-fotos-" + now.Format(DateLayout) + ".zip"
}
