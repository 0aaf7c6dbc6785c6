// Package export writes the sales list as an .xlsx workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"go-pos-backoffice/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName   = "Sales"
)

var headings = []string{
	"Sale ID", "Date", "Customer", "Sub Total", "Tax %", "Tax", "Grand Total", "Paid", "Change", "Profit",
}

// WriteSales renders sales into a single-sheet workbook, dates shown in loc.
func WriteSales(w io.Writer, sales []model.Sale, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headings), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return err
	}

	for i, s := range sales {
		customer := ""
		if s.Customer != nil {
			customer = s.Customer.FullName()
		}
		row := []interface{}{
			s.ID.String(),
			s.Date.In(loc).Format("2006-01-02 15:04"),
			customer,
			s.SubTotal.InexactFloat64(),
			s.TaxPercentage.InexactFloat64(),
			s.TaxAmount.InexactFloat64(),
			s.GrandTotal.InexactFloat64(),
			s.AmountPayed.InexactFloat64(),
			s.AmountChange.InexactFloat64(),
			s.Profit.InexactFloat64(),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "C", 20); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
