package pipeline

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"focorders/internal/orders"
	"focorders/internal/util"
)

const summaryCellWidth = 60

func RenderPreview(w io.Writer, rows []orders.PreviewRow) {
	table := newTable(w)
	table.SetHeader([]string{"#", "SoldToParty", "PO_Number", "Items"})
	total := 0
	for i, r := range rows {
		table.Append([]string{strconv.Itoa(i + 1), r.SoldToParty, r.PONumber, strconv.Itoa(r.ItemCount)})
		total += r.ItemCount
	}
	table.SetFooter([]string{"", "", fmt.Sprintf("%d groups", len(rows)), strconv.Itoa(total)})
	table.Render()
}

// RenderOutcomes prints the end-of-run table in submission order.
func RenderOutcomes(w io.Writer, result *RunResult) {
	table := newTable(w)
	table.SetHeader([]string{"SoldToParty", "PO_Number", "Items", "Status", "Order", "Detail"})
	for _, o := range result.Outcomes {
		detail := o.Message
		if o.PersistError != nil {
			detail = "warehouse: " + *o.PersistError
		}
		table.Append([]string{
			o.SoldToParty,
			o.PONumber,
			strconv.Itoa(o.ItemCount),
			string(o.Status),
			util.Deref(o.OrderNumber),
			util.Truncate(util.NormalizeSpaces(detail), summaryCellWidth),
		})
	}
	table.Render()
	fmt.Fprintf(w, "run %s: %d succeeded, %d failed\n", result.RunID, result.Succeeded(), result.Failed())
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}
