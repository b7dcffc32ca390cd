package status

import (
	"fmt"
	"io"
	"strings"

	"murmur/log"
)

// LogDisplay prints each update as a line and records it in the
// diagnostics log. Used when there is no terminal UI.
type LogDisplay struct {
	w    io.Writer
	last string
}

func NewLogDisplay(w io.Writer) *LogDisplay { return &LogDisplay{w: w} }

func (d *LogDisplay) Show(u Update) {
	if u.Label == d.last {
		return
	}
	d.last = u.Label
	label := strings.TrimSpace(strings.TrimPrefix(u.Label, "●"))
	if d.w != nil {
		fmt.Fprintf(d.w, "%s  %-6s %s\n", u.At.Format("15:04:05"), u.Severity, label)
	}
	l := log.With("status")
	l.Debug().Str("severity", u.Severity.String()).Msg(label)
}

func (d *LogDisplay) Close() {}
