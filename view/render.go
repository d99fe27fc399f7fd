package view

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Title is the widget heading
const Title = "Classy Weather"

// Frame is everything one redraw of the widget needs
type Frame struct {
	Query   string
	Loading bool
	Label   string
	Days    []DaySummary
}

// Render writes a plain-text frame to w
func Render(w io.Writer, f Frame) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", Title)
	fmt.Fprintf(tw, "> %s\n", f.Query)
	if f.Loading {
		fmt.Fprintln(tw, "Loading...")
	}

	if len(f.Days) > 0 {
		fmt.Fprintf(tw, "%s\n", f.Label)
		for _, d := range f.Days {
			fmt.Fprintf(tw, "%s\t%s\t%d° — %d°\n", d.Icon, d.Label, d.Min, d.Max)
		}
	}

	return tw.Flush()
}
