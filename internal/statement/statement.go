// Package statement renders transaction lists as downloadable documents.
package statement

import (
	"errors"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"

	"bankledger/internal/models"
	"bankledger/internal/money"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

var ErrUnsupportedFormat = errors.New("format must be pdf or xlsx")

const timestampLayout = "2006-01-02 15:04:05"

var header = []string{"Date", "Account", "Type", "Method", "Amount", "Balance", "Memo"}

type Statement struct {
	Holder       string
	GeneratedAt  time.Time
	Accounts     map[string]string
	Transactions []models.Transaction
}

// ContentType returns the MIME type and file extension for format.
func ContentType(format string) (string, string, error) {
	switch format {
	case FormatPDF:
		return "application/pdf", "pdf", nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", nil
	default:
		return "", "", ErrUnsupportedFormat
	}
}

func Write(w io.Writer, format string, s Statement) error {
	switch format {
	case FormatPDF:
		return WritePDF(w, s)
	case FormatXLSX:
		return WriteXLSX(w, s)
	default:
		return ErrUnsupportedFormat
	}
}

func (s Statement) row(t models.Transaction) []string {
	account := t.AccountID
	if number, ok := s.Accounts[t.AccountID]; ok {
		account = number
	}
	return []string{
		t.Timestamp.UTC().Format(timestampLayout),
		account,
		t.Direction,
		t.Method,
		money.Format(t.Amount),
		money.Format(t.AmountAfter),
		t.History,
	}
}

func WritePDF(w io.Writer, s Statement) error {
	widths := []float64{36, 34, 24, 28, 24, 24, 0}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Transaction Statement", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("Holder: "+s.Holder), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+s.GeneratedAt.UTC().Format(timestampLayout)+" UTC", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range header {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, t := range s.Transactions {
		for i, value := range s.row(t) {
			align := "L"
			if i == 4 || i == 5 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, tr(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(s.Transactions) == 0 {
		pdf.CellFormat(0, 6, "No transactions.", "1", 1, "C", false, 0, "")
	}
	return pdf.Output(w)
}

func WriteXLSX(w io.Writer, s Statement) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Statement")
	if err != nil {
		return err
	}
	row := sheet.AddRow()
	for _, title := range header {
		row.AddCell().SetValue(title)
	}
	for _, t := range s.Transactions {
		row = sheet.AddRow()
		for _, value := range s.row(t) {
			row.AddCell().SetValue(value)
		}
	}
	return file.Write(w)
}
