// Output formatting shared by the cargohold commands and the shell.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/cargohold/pkg/types"
)

const detailRule = "=================================================="

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(output))
	return nil
}

// renderTable writes records as an aligned table.
func renderTable(w io.Writer, records []types.Cargo) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTRACKING NO\tSENDER\tDESTINATION\tITEMS\tWEIGHT(KG)\tSTATUS")
	for _, c := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.2f\t%s\n",
			c.ID, c.TrackingNumber, c.Sender, c.Destination, len(c.Items), c.TotalWeight, c.Status)
	}
	tw.Flush()
	fmt.Fprint(w, sb.String())
}

// renderDetail writes every field of c, one per line, with its items.
func renderDetail(w io.Writer, c types.Cargo) {
	fmt.Fprintln(w, detailRule)
	fmt.Fprintf(w, "ID: %d\n", c.ID)
	fmt.Fprintf(w, "Tracking Number: %s\n", c.TrackingNumber)
	fmt.Fprintf(w, "Sender: %s\n", c.Sender)
	fmt.Fprintf(w, "Sender Address: %s\n", c.SenderAddress)
	fmt.Fprintf(w, "Destination: %s\n", c.Destination)
	fmt.Fprintf(w, "Status: %s\n", c.Status)
	fmt.Fprintf(w, "Total Weight: %.2f kg\n", c.TotalWeight)
	fmt.Fprintln(w, "Items:")
	for _, item := range c.Items {
		fmt.Fprintf(w, "  %d x %s (%.2f kg each)\n", item.Quantity, item.Name, item.UnitWeight)
	}
	fmt.Fprintln(w, detailRule)
}

// renderWeight writes the registry's combined weight.
func renderWeight(w io.Writer, total float64) {
	fmt.Fprintf(w, "Total weight of all cargo: %.2f kg\n", total)
}
