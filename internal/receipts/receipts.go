package receipts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/jsiptv/mobipay/internal/domain/entity"
)

var (
	colorPrimary   = [3]int{30, 58, 95}
	colorTextDark  = [3]int{44, 62, 80}
	colorTextMuted = [3]int{127, 140, 141}
)

// Generator renders payment receipts and trial confirmations as PDF files
// under a configured directory. References are opaque file names.
type Generator struct {
	dir string
}

func NewGenerator(dir string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipts dir: %w", err)
	}
	return &Generator{dir: dir}, nil
}

// PathFor resolves a reference to its file path
func (g *Generator) PathFor(reference string) string {
	return filepath.Join(g.dir, reference)
}

// GeneratePaymentReceipt renders the receipt for a completed transaction and
// returns its reference.
func (g *Generator) GeneratePaymentReceipt(txn *entity.Transaction) (string, error) {
	pdf := newDocument("Payment Receipt")

	writeRow(pdf, "Transaction", txn.ID)
	writeRow(pdf, "Account", txn.Account)
	writeRow(pdf, "Amount", fmt.Sprintf("%s %s", txn.Amount.StringFixed(2), txn.Currency))
	writeRow(pdf, "Paid For", fmt.Sprintf("%d months", txn.PaidForMonths))
	writeRow(pdf, "Action", string(txn.Action))
	writeRow(pdf, "Issued", time.Now().UTC().Format(time.RFC3339))

	reference := txn.ID + ".pdf"
	if err := g.write(pdf, reference); err != nil {
		return "", err
	}
	return reference, nil
}

// GenerateTrialConfirmation renders the welcome artifact for a new trial line
func (g *Generator) GenerateTrialConfirmation(email, username string) (string, error) {
	pdf := newDocument("Trial Confirmation")

	writeRow(pdf, "Email", email)
	writeRow(pdf, "Username", username)
	writeRow(pdf, "Issued", time.Now().UTC().Format(time.RFC3339))

	reference := fmt.Sprintf("trial-%s.pdf", uuid.NewString())
	if err := g.write(pdf, reference); err != nil {
		return "", err
	}
	return reference, nil
}

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	pdf.SetY(25)
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 12, "MOBIPAY", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	return pdf
}

func writeRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(45, 8, label, "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
}

func (g *Generator) write(pdf *fpdf.Fpdf, reference string) error {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("PDF output error: %w", err)
	}
	if err := os.WriteFile(g.PathFor(reference), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}
