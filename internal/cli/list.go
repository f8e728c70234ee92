package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"systemrepair/internal/maintenance"
)

// ListSteps prints every maintenance step in execution order.
func ListSteps(w io.Writer) error {
	header := color.New(color.FgCyan, color.Bold)

	header.Fprintln(w, "Maintenance steps:")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, s := range maintenance.Catalog() {
		fmt.Fprintf(tw, "%2d.\t%s\t%s\n", i+1, s.ID, s.Title)
		fmt.Fprintf(tw, "\t\t%s\n", s.Description)
	}
	return tw.Flush()
}

// ListPlans prints the predefined plans and the steps each one runs.
func ListPlans(w io.Writer) error {
	header := color.New(color.FgCyan, color.Bold)

	header.Fprintln(w, "Maintenance plans:")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	for _, p := range maintenance.GetPredefinedPlans() {
		fmt.Fprintf(w, "Name: %s\n", p.Name)
		fmt.Fprintf(w, "Description: %s\n", p.Description)
		steps := p.Steps
		if steps == nil {
			steps = []string{"all"}
		}
		fmt.Fprintf(w, "Steps: %s\n", strings.Join(steps, ", "))
		fmt.Fprintln(w, strings.Repeat("-", 40))
	}
	return nil
}
