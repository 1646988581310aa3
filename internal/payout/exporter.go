package payout

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Export format constants
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

// payoutReportHeaders is the fixed, documented column contract of the
// payout export. Order must not change; downstream finance tooling
// consumes it positionally.
var payoutReportHeaders = []string{
	"Beneficiary Name",
	"Total Donations",
	"Monthly Donations",
	"One-Time Donations",
	"Donation Count",
	"Service Fees",
	"CC Processing Fees",
	"Net Amount",
	"Platform Fee",
	"Payout Amount",
	"Settlement (Stripe) Amount",
	"Reconciliation Status",
	"Payment Method",
	"Payout Status",
	"Payout Date",
	"Notes",
}

// ReportExporter serializes one period's payout records. Deterministic:
// the same record set always yields byte-identical output.
type ReportExporter interface {
	Export(format string, period Period, records []PayoutRecord) ([]byte, string, string, error)
}

type reportExporter struct{}

func NewReportExporter() ReportExporter {
	return &reportExporter{}
}

func (e *reportExporter) Export(format string, period Period, records []PayoutRecord) ([]byte, string, string, error) {
	switch format {
	case FormatCSV:
		data, err := e.exportCSV(records)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("payouts_%s.csv", period.Month())
		return data, filename, "text/csv", nil

	case FormatExcel:
		data, err := e.exportExcel(records)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("payouts_%s.xlsx", period.Month())
		return data, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	case FormatPDF:
		data, err := e.exportPDF(records)
		if err != nil {
			return nil, "", "", err
		}
		filename := fmt.Sprintf("payouts_%s.pdf", period.Month())
		return data, filename, "application/pdf", nil

	default:
		return nil, "", "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// rowValues maps one record to the fixed column order. Currency is
// rounded to two decimals here and nowhere earlier in the pipeline.
func rowValues(r PayoutRecord) []string {
	settlement := ""
	if r.Reconciliation.SettlementAmount != nil {
		settlement = formatAmount(*r.Reconciliation.SettlementAmount)
	}

	payoutDate := ""
	if r.PayoutDate != nil {
		payoutDate = r.PayoutDate.Format("2006-01-02")
	}

	notes := ""
	if r.Notes != nil {
		notes = *r.Notes
	}

	return []string{
		r.BeneficiaryName,
		formatAmount(r.Summary.TotalDonations()),
		formatAmount(r.Summary.RecurringDonationTotal),
		formatAmount(r.Summary.OneTimeDonationTotal),
		strconv.Itoa(r.Summary.DonationCount),
		formatAmount(r.Fees.ServiceFees),
		formatAmount(r.Fees.CCProcessingFees),
		formatAmount(r.Fees.NetAmount),
		formatAmount(r.Split.PlatformFee),
		formatAmount(r.Split.PayoutAmount),
		settlement,
		string(r.Reconciliation.Status),
		r.PaymentMethod,
		string(r.PayoutStatus),
		payoutDate,
		notes,
	}
}

// totalsRow recomputes every numeric column from the exported records
// themselves, so the footer can never drift from the rows above it.
func totalsRow(records []PayoutRecord) []string {
	var (
		total      = decimal.Zero
		recurring  = decimal.Zero
		oneTime    = decimal.Zero
		count      = 0
		service    = decimal.Zero
		ccFees     = decimal.Zero
		net        = decimal.Zero
		platform   = decimal.Zero
		payout     = decimal.Zero
		settlement = decimal.Zero
	)

	for _, r := range records {
		total = total.Add(r.Summary.TotalDonations())
		recurring = recurring.Add(r.Summary.RecurringDonationTotal)
		oneTime = oneTime.Add(r.Summary.OneTimeDonationTotal)
		count += r.Summary.DonationCount
		service = service.Add(r.Fees.ServiceFees)
		ccFees = ccFees.Add(r.Fees.CCProcessingFees)
		net = net.Add(r.Fees.NetAmount)
		platform = platform.Add(r.Split.PlatformFee)
		payout = payout.Add(r.Split.PayoutAmount)
		if r.Reconciliation.SettlementAmount != nil {
			settlement = settlement.Add(*r.Reconciliation.SettlementAmount)
		}
	}

	return []string{
		"TOTAL",
		formatAmount(total),
		formatAmount(recurring),
		formatAmount(oneTime),
		strconv.Itoa(count),
		formatAmount(service),
		formatAmount(ccFees),
		formatAmount(net),
		formatAmount(platform),
		formatAmount(payout),
		formatAmount(settlement),
		"", "", "", "", "",
	}
}

func formatAmount(d decimal.Decimal) string {
	return RoundCurrency(d).StringFixed(2)
}

// truncateCell shortens long free-text values for fixed-width PDF cells.
// Cuts on rune boundaries so multi-byte names survive intact.
func truncateCell(v string, max int) string {
	runes := []rune(v)
	if len(runes) <= max {
		return v
	}
	return string(runes[:max-3]) + "..."
}

func (e *reportExporter) exportCSV(records []PayoutRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(payoutReportHeaders); err != nil {
		return nil, err
	}

	for _, r := range records {
		if err := writer.Write(rowValues(r)); err != nil {
			return nil, err
		}
	}

	if err := writer.Write(totalsRow(records)); err != nil {
		return nil, err
	}

	// Important: Flush before getting bytes
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (e *reportExporter) exportExcel(records []PayoutRecord) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Payouts"
	f.SetSheetName("Sheet1", sheet)

	for i, h := range payoutReportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}

	writeRow := func(rowNum int, values []string) error {
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return err
			}
			f.SetCellValue(sheet, cell, v)
		}
		return nil
	}

	for i, r := range records {
		if err := writeRow(i+2, rowValues(r)); err != nil {
			return nil, err
		}
	}
	if err := writeRow(len(records)+2, totalsRow(records)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *reportExporter) exportPDF(records []PayoutRecord) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Beneficiary Payout Report")
	pdf.Ln(14)

	pdf.SetFont("Arial", "B", 6)
	widths := []float64{28, 17, 17, 17, 12, 14, 14, 16, 15, 16, 18, 18, 16, 14, 16, 28}

	for i, h := range payoutReportHeaders {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 6)
	printRow := func(values []string) {
		for i, v := range values {
			v = truncateCell(v, 24)
			align := "R"
			if i == 0 || i > 10 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 5, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	for _, r := range records {
		printRow(rowValues(r))
	}
	pdf.SetFont("Arial", "B", 6)
	printRow(totalsRow(records))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
