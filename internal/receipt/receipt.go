// Package receipt renders a sale as a narrow till-roll PDF.
package receipt

import (
	"fmt"
	"io"
	"time"

	"go-pos-backoffice/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const ContentType = "application/pdf"

// Style holds the page geometry and typography of a receipt.
type Style struct {
	PageWidth  float64 // mm
	Margin     float64 // mm
	LineHeight float64 // mm
	FontFamily string
	TitleSize  float64
	BodySize   float64
}

// DefaultStyle fits an 80mm thermal printer roll.
var DefaultStyle = Style{
	PageWidth:  80,
	Margin:     4,
	LineHeight: 4.5,
	FontFamily: "Helvetica",
	TitleSize:  12,
	BodySize:   8,
}

type Shop struct {
	Name    string
	Address string
}

type Renderer struct {
	shop  Shop
	style Style
	loc   *time.Location
}

func NewRenderer(shop Shop, style Style, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	if style.PageWidth == 0 {
		style = DefaultStyle
	}
	return &Renderer{shop: shop, style: style, loc: loc}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// pageHeight grows with the number of lines so the roll is cut right after the totals.
func (r *Renderer) pageHeight(lines int) float64 {
	const fixedRows = 20
	return 2*r.style.Margin + float64(fixedRows+2*lines)*r.style.LineHeight
}

// Render writes the receipt of sale, which must have Details (with Product) and Customer loaded.
func (r *Renderer) Render(w io.Writer, sale *model.Sale) error {
	st := r.style
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: st.PageWidth, Ht: r.pageHeight(len(sale.Details))},
	})
	pdf.SetMargins(st.Margin, st.Margin, st.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("Receipt %s", sale.ID), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width := st.PageWidth - 2*st.Margin
	lh := st.LineHeight

	pdf.SetFont(st.FontFamily, "B", st.TitleSize)
	pdf.CellFormat(width, lh+1, tr(r.shop.Name), "", 1, "C", false, 0, "")
	pdf.SetFont(st.FontFamily, "", st.BodySize)
	if r.shop.Address != "" {
		pdf.MultiCell(width, lh, tr(r.shop.Address), "", "C", false)
	}
	r.rule(pdf)

	customer := ""
	if sale.Customer != nil {
		customer = sale.Customer.FullName()
	}
	r.pair(pdf, "Receipt", sale.ID.String()[:8])
	r.pair(pdf, "Date", sale.Date.In(r.loc).Format("2006-01-02 15:04"))
	r.pair(pdf, tr("Customer"), tr(customer))
	r.rule(pdf)

	for _, d := range sale.Details {
		name := "Product"
		if d.Product != nil {
			name = d.Product.Name
		}
		pdf.SetFont(st.FontFamily, "B", st.BodySize)
		pdf.CellFormat(width, lh, tr(name), "", 1, "L", false, 0, "")
		pdf.SetFont(st.FontFamily, "", st.BodySize)
		r.pair(pdf, fmt.Sprintf("  %d x %s", d.Quantity, money(d.Price)), money(d.TotalDetail))
	}
	r.rule(pdf)

	r.pair(pdf, "Sub total", money(sale.SubTotal))
	r.pair(pdf, fmt.Sprintf("Tax (%s%%)", sale.TaxPercentage.StringFixed(2)), money(sale.TaxAmount))
	pdf.SetFont(st.FontFamily, "B", st.BodySize+1)
	r.pair(pdf, "Grand total", money(sale.GrandTotal))
	pdf.SetFont(st.FontFamily, "", st.BodySize)
	r.pair(pdf, "Paid", money(sale.AmountPayed))
	r.pair(pdf, "Change", money(sale.AmountChange))
	r.rule(pdf)

	pdf.CellFormat(width, lh, "Thank you!", "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func (r *Renderer) pair(pdf *fpdf.Fpdf, label, value string) {
	half := (r.style.PageWidth - 2*r.style.Margin) / 2
	pdf.CellFormat(half, r.style.LineHeight, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(half, r.style.LineHeight, value, "", 1, "R", false, 0, "")
}

func (r *Renderer) rule(pdf *fpdf.Fpdf) {
	y := pdf.GetY() + 1
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetDashPattern([]float64{0.8, 0.8}, 0)
	pdf.Line(r.style.Margin, y, r.style.PageWidth-r.style.Margin, y)
	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetY(y + 1)
}
