// Package reports renders orders for export: CSV for the admin search and a
// printable kitchen ticket.
package reports

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/yeremiapane/table-order-app/services"
	"github.com/yeremiapane/table-order-app/utils"
)

var csvHeader = []string{
	"order_id", "table_number", "join_code", "status", "mobile_number",
	"item_count", "total", "created_at",
}

// WriteOrdersCSV writes one row per order. Totals use the currency symbol.
func WriteOrdersCSV(w io.Writer, orders []services.OrderSummary, currencySymbol string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		tableNumber := ""
		if o.Table != nil {
			tableNumber = o.Table.TableNumber
		}
		row := []string{
			o.ID,
			tableNumber,
			o.JoinCode,
			string(o.Status),
			o.MobileNumber,
			strconv.Itoa(o.ItemCount),
			utils.FormatCurrency(o.Total, currencySymbol),
			o.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
