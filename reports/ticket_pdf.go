package reports

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/utils"
)

// Ticket width in mm, sized for an 80mm thermal printer.
const ticketWidth = 80.0

// WriteKitchenTicket renders one order as a narrow PDF ticket: table, code,
// time, status, then one line per item with its quantity.
func WriteKitchenTicket(w io.Writer, order *models.Order, currencySymbol string) error {
	height := 70.0 + float64(len(order.Items))*7
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: ticketWidth, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()

	contentWidth := ticketWidth - 8

	tableNumber := "-"
	if order.Table != nil {
		tableNumber = order.Table.TableNumber
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 9, "Table "+tableNumber, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth, 6, "Code: "+order.JoinCode, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 6, order.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 6, "Status: "+string(order.Status), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), ticketWidth-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	for _, item := range order.Items {
		name := item.MenuItemID
		if item.MenuItem != nil {
			name = item.MenuItem.Name
		}
		pdf.CellFormat(12, 7, fmt.Sprintf("%dx", item.Quantity), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth-12, 7, pdf.UnicodeTranslatorFromDescriptor("")(name), "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), ticketWidth-4, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth/2, 6, fmt.Sprintf("Items: %d", order.ItemCount()), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidth/2, 6, utils.FormatCurrency(order.Total(), currencySymbol), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
