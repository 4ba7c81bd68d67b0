package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stayledger/internal/statement/application"
	statement "stayledger/internal/statement/domain"
)

// BuildStatementPDF renders an owner statement as a PDF.
func BuildStatementPDF(rec *application.StatementRecord, lines []statement.Line, costs, upsells []statement.Expense) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Owner Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Properties: %s", rec.PropertySetKey))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s (%s)",
		rec.PeriodStart.Format("2006-01-02"), rec.PeriodEnd.Format("2006-01-02"), rec.Calculation))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Version: %d", rec.Version))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", rec.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", rec.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if !rec.VoidedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Voided: %s (%s)", rec.VoidedAt.Format(time.RFC3339), rec.VoidReason))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total Revenue: %s", money(rec.TotalRevenue)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Expenses: %s", money(rec.TotalExpenses)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Management Commission: %s", money(rec.PMCommission)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tech Fees: %s", money(rec.TechFees)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Insurance Fees: %s", money(rec.InsuranceFees)))
	pdf.Ln(5)
	if !rec.Adjustments.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Adjustments: %s", money(rec.Adjustments)))
		pdf.Ln(5)
	}
	if rec.ShowResortFee {
		pdf.Cell(0, 6, fmt.Sprintf("Resort Fees: %s", money(rec.ResortFeeTotal)))
		pdf.Ln(5)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Owner Payout: %s", money(rec.OwnerPayout)))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)

	if rec.ConversionNotice != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, "Notice: "+rec.ConversionNotice, "", "L", false)
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 10)
	}

	// Reservation lines table
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(30, 6, "Check-in", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Check-out", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Source", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Revenue", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Mgmt Fee", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Payout", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, line := range lines {
		pdf.CellFormat(30, 6, line.CheckIn.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, line.CheckOut.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, line.Source, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, money(line.Revenue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, money(line.PMFee), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, money(line.GrossPayout), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	writeExpenseTable(pdf, "Expenses", costs)
	writeExpenseTable(pdf, "Upsells", upsells)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeExpenseTable(pdf *gofpdf.Fpdf, title string, expenses []statement.Expense) {
	if len(expenses) == 0 {
		return
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(0, 6, title)
	pdf.Ln(6)
	pdf.CellFormat(30, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(90, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, e := range expenses {
		pdf.CellFormat(30, 6, e.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(90, 6, e.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, e.Category, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, money(e.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

// BuildStatementXLSX renders an owner statement as a workbook with
// summary, lines and expenses sheets.
func BuildStatementXLSX(rec *application.StatementRecord, lines []statement.Line, costs, upsells []statement.Expense) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	linesSheet := "lines"
	expensesSheet := "expenses"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(linesSheet)
	f.NewSheet(expensesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Owner Statement")
	_ = f.SetCellValue(summarySheet, "A3", "Properties")
	_ = f.SetCellValue(summarySheet, "B3", rec.PropertySetKey)
	_ = f.SetCellValue(summarySheet, "A4", "Period Start")
	_ = f.SetCellValue(summarySheet, "B4", rec.PeriodStart.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "Period End")
	_ = f.SetCellValue(summarySheet, "B5", rec.PeriodEnd.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "Calculation")
	_ = f.SetCellValue(summarySheet, "B6", string(rec.Calculation))
	_ = f.SetCellValue(summarySheet, "A7", "Version")
	_ = f.SetCellValue(summarySheet, "B7", rec.Version)
	_ = f.SetCellValue(summarySheet, "A8", "Status")
	_ = f.SetCellValue(summarySheet, "B8", rec.Status)
	_ = f.SetCellValue(summarySheet, "A9", "Total Revenue")
	_ = f.SetCellValue(summarySheet, "B9", money(rec.TotalRevenue))
	_ = f.SetCellValue(summarySheet, "A10", "Total Expenses")
	_ = f.SetCellValue(summarySheet, "B10", money(rec.TotalExpenses))
	_ = f.SetCellValue(summarySheet, "A11", "Management Commission")
	_ = f.SetCellValue(summarySheet, "B11", money(rec.PMCommission))
	_ = f.SetCellValue(summarySheet, "A12", "Tech Fees")
	_ = f.SetCellValue(summarySheet, "B12", money(rec.TechFees))
	_ = f.SetCellValue(summarySheet, "A13", "Insurance Fees")
	_ = f.SetCellValue(summarySheet, "B13", money(rec.InsuranceFees))
	_ = f.SetCellValue(summarySheet, "A14", "Adjustments")
	_ = f.SetCellValue(summarySheet, "B14", money(rec.Adjustments))
	_ = f.SetCellValue(summarySheet, "A15", "Owner Payout")
	_ = f.SetCellValue(summarySheet, "B15", money(rec.OwnerPayout))
	if rec.ShowResortFee {
		_ = f.SetCellValue(summarySheet, "A16", "Resort Fees")
		_ = f.SetCellValue(summarySheet, "B16", money(rec.ResortFeeTotal))
	}
	if rec.ConversionNotice != "" {
		_ = f.SetCellValue(summarySheet, "A18", "Notice")
		_ = f.SetCellValue(summarySheet, "B18", rec.ConversionNotice)
	}

	_ = f.SetCellValue(linesSheet, "A1", "Check-in")
	_ = f.SetCellValue(linesSheet, "B1", "Check-out")
	_ = f.SetCellValue(linesSheet, "C1", "Source")
	_ = f.SetCellValue(linesSheet, "D1", "Property")
	_ = f.SetCellValue(linesSheet, "E1", "Revenue")
	_ = f.SetCellValue(linesSheet, "F1", "Mgmt Fee")
	_ = f.SetCellValue(linesSheet, "G1", "Tax")
	_ = f.SetCellValue(linesSheet, "H1", "Payout")
	_ = f.SetCellValue(linesSheet, "I1", "Prorated")
	for i, line := range lines {
		row := i + 2
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("A%d", row), line.CheckIn.Format("2006-01-02"))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("B%d", row), line.CheckOut.Format("2006-01-02"))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("C%d", row), line.Source)
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("D%d", row), line.PropertyID)
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("E%d", row), money(line.Revenue))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("F%d", row), money(line.PMFee))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("G%d", row), money(line.Tax))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("H%d", row), money(line.GrossPayout))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("I%d", row), line.Prorated)
	}

	_ = f.SetCellValue(expensesSheet, "A1", "Date")
	_ = f.SetCellValue(expensesSheet, "B1", "Description")
	_ = f.SetCellValue(expensesSheet, "C1", "Category")
	_ = f.SetCellValue(expensesSheet, "D1", "Kind")
	_ = f.SetCellValue(expensesSheet, "E1", "Amount")
	row := 2
	for _, e := range costs {
		writeExpenseRow(f, expensesSheet, row, e, "cost")
		row++
	}
	for _, e := range upsells {
		writeExpenseRow(f, expensesSheet, row, e, "upsell")
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeExpenseRow(f *excelize.File, sheet string, row int, e statement.Expense, kind string) {
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), e.Date.Format("2006-01-02"))
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), e.Description)
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.Category)
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), kind)
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), money(e.Amount))
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
