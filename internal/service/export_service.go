package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"salon_admin/internal/model"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ExportFormat is a bookings export file type.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f ExportFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/csv"
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportService renders the full booking list for download.
type ExportService interface {
	ExportBookings(ctx context.Context, format ExportFormat, filter model.BookingStatus) (*ExportFile, error)
}

type exportService struct {
	bookings BookingBackend
	now      func() time.Time
}

// NewExportService creates a new ExportService
func NewExportService(bookings BookingBackend) ExportService {
	return &exportService{bookings: bookings, now: time.Now}
}

var exportHeader = []string{"ID", "Date", "Time", "Name", "Email", "Phone", "Service", "Second Service", "Status", "Remarks"}

func exportRow(v model.BookingView) []string {
	var service2, remarks string
	if v.Service2 != nil {
		service2 = *v.Service2
	}
	if v.Remarks != nil {
		remarks = *v.Remarks
	}
	return []string{
		v.ID.String(), v.DateKey(), v.Time, v.Name, v.Email, v.Phone,
		v.Service1, service2, v.StatusText, remarks,
	}
}

func (s *exportService) ExportBookings(ctx context.Context, format ExportFormat, filter model.BookingStatus) (*ExportFile, error) {
	bookings, err := s.bookings.AllBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings for export: %w", err)
	}
	views := FilterByStatus(Views(bookings), filter)

	var data []byte
	switch format {
	case FormatCSV:
		data, err = renderCSV(views)
	case FormatXLSX:
		data, err = renderXLSX(views)
	case FormatPDF:
		data, err = renderPDF(views, s.now())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		Name:        fmt.Sprintf("bookings_export_%s.%s", s.now().Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

func renderCSV(views []model.BookingView) ([]byte, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)

	if err := writer.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, v := range views {
		if err := writer.Write(exportRow(v)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV writer: %w", err)
	}
	return buffer.Bytes(), nil
}

const xlsxSheet = "Bookings"

func renderXLSX(views []model.BookingView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeXLSXRow(f, 1, exportHeader); err != nil {
		return nil, err
	}
	for i, v := range views {
		if err := writeXLSXRow(f, i+2, exportRow(v)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSXRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// pdf column widths in mm, landscape A4
var pdfColumns = []struct {
	title string
	width float64
	field func(v model.BookingView) string
}{
	{"Date", 28, func(v model.BookingView) string { return v.DisplayDate }},
	{"Time", 20, func(v model.BookingView) string { return v.DisplayTime }},
	{"Name", 45, func(v model.BookingView) string { return v.Name }},
	{"Phone", 32, func(v model.BookingView) string { return v.Phone }},
	{"Service", 60, func(v model.BookingView) string {
		if v.Service2 != nil && *v.Service2 != "" {
			return v.Service1 + " + " + *v.Service2
		}
		return v.Service1
	}},
	{"Status", 28, func(v model.BookingView) string { return v.StatusText }},
	{"Remarks", 64, func(v model.BookingView) string {
		if v.Remarks == nil {
			return ""
		}
		return *v.Remarks
	}},
}

func renderPDF(views []model.BookingView, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Bookings")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Generated %s, %d bookings", generated.Format("Jan 02, 2006 15:04"), len(views)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, v := range views {
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, tr(truncate(col.field(v), int(col.width/2))), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
