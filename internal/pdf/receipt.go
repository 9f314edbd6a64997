package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	Receipt(data ReceiptData) ([]byte, error)
}

// ReceiptGenerator renders membership payment receipts in memory.
type ReceiptGenerator struct {
	FontPath string // TTF с кириллицей/турецким; пусто — встроенный Helvetica
	fontName string
}

type ReceiptData struct {
	Name        string
	Email       string
	PaymentID   string
	Amount      string
	Currency    string
	Country     string
	PaidAt      time.Time
	MemberUntil time.Time
}

func NewReceiptGenerator(fontPath string) *ReceiptGenerator {
	g := &ReceiptGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

func (g *ReceiptGenerator) Receipt(data ReceiptData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Practico Premium - Payment Receipt", true)
	pdf.SetAuthor("Practico", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	tr := func(s string) string { return s }
	if g.FontPath != "" {
		pdf.AddUTF8Font(g.fontName, "", g.FontPath)
		pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "PAYMENT RECEIPT", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, tr("Practico Premium Membership"), "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.sectionTitle(pdf, "Customer")
	g.kvLine(pdf, "Name", tr(data.Name))
	g.kvLine(pdf, "Email", tr(data.Email))
	if data.Country != "" {
		g.kvLine(pdf, "Country", data.Country)
	}
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Payment")
	g.kvLine(pdf, "Payment ID", data.PaymentID)
	g.kvLine(pdf, "Amount", fmt.Sprintf("%s %s", data.Amount, data.Currency))
	g.kvLine(pdf, "Paid at", data.PaidAt.UTC().Format("02.01.2006 15:04 MST"))
	g.kvLine(pdf, "Member until", data.MemberUntil.UTC().Format("02.01.2006"))
	pdf.Ln(2)
	g.hr(pdf)

	pdf.SetFont(g.fontName, "", 9)
	pdf.MultiCell(0, 5, "By completing this payment you accepted the Terms of Service, Privacy Policy "+
		"and Distance Sales Agreement.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ReceiptGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReceiptGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReceiptGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
