package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportTrialBalanceExcel writes the trial balance as an xlsx workbook.
func ExportTrialBalanceExcel(ctx context.Context, asOf time.Time, w io.Writer) error {
	report, err := GetTrialBalanceReport(ctx, asOf)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Trial Balance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headers := []string{"Code", "Account", "Type", "Debit", "Credit"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	for i, row := range report.Rows {
		rowNo := i + 2
		f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), row.AccountCode)
		f.SetCellValue(sheet, "B"+fmt.Sprint(rowNo), row.AccountName)
		f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), row.MainType)
		f.SetCellValue(sheet, "D"+fmt.Sprint(rowNo), row.Debit.InexactFloat64())
		f.SetCellValue(sheet, "E"+fmt.Sprint(rowNo), row.Credit.InexactFloat64())
	}
	totalRow := len(report.Rows) + 2
	f.SetCellValue(sheet, "B"+fmt.Sprint(totalRow), "Total")
	f.SetCellValue(sheet, "D"+fmt.Sprint(totalRow), report.TotalDebit.InexactFloat64())
	f.SetCellValue(sheet, "E"+fmt.Sprint(totalRow), report.TotalCredit.InexactFloat64())

	return f.Write(w)
}

// ExportInventoryValuationExcel writes the valuation rows as an xlsx workbook.
func ExportInventoryValuationExcel(ctx context.Context, w io.Writer) error {
	report, err := GetInventorySummaryReport(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Valuation"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headers := []string{"SKU", "Item", "On Hand", "Cost Value", "Retail Value"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	for i, row := range report.Valuation {
		rowNo := i + 2
		f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), row.Sku)
		f.SetCellValue(sheet, "B"+fmt.Sprint(rowNo), row.ItemName)
		f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), row.OnHand.InexactFloat64())
		f.SetCellValue(sheet, "D"+fmt.Sprint(rowNo), row.CostValue.InexactFloat64())
		f.SetCellValue(sheet, "E"+fmt.Sprint(rowNo), row.RetailValue.InexactFloat64())
	}
	totalRow := len(report.Valuation) + 2
	f.SetCellValue(sheet, "B"+fmt.Sprint(totalRow), "Total")
	f.SetCellValue(sheet, "D"+fmt.Sprint(totalRow), report.TotalCostValue.InexactFloat64())
	f.SetCellValue(sheet, "E"+fmt.Sprint(totalRow), report.TotalRetailValue.InexactFloat64())

	return f.Write(w)
}
