package core

import (
	"io"
	"log"
	"sort"
	"sync"

	"github.com/fatih/color"
)

// Printer writes colored, mutex-serialized status lines to stdout/stderr.
type Printer struct {
	Stdout io.Writer
	Stderr io.Writer
	l      sync.Mutex
}

func NewPrinter(stdout, stderr io.Writer) *Printer {
	return &Printer{Stdout: stdout, Stderr: stderr}
}

func (p *Printer) writeString(w io.Writer, s string) {
	p.l.Lock()
	if _, err := io.WriteString(w, s+"\n"); err != nil {
		log.Printf("ERROR writing to file: %v", err)
	}
	p.l.Unlock()
}

func (p *Printer) Success(format string, v ...interface{}) {
	p.writeString(p.Stdout, color.GreenString(format, v...))
}

func (p *Printer) Error(format string, v ...interface{}) {
	p.writeString(p.Stderr, color.RedString(format, v...))
}

func (p *Printer) Info(format string, v ...interface{}) {
	p.writeString(p.Stdout, color.YellowString(format, v...))
}

func (p *Printer) Warn(format string, v ...interface{}) {
	p.writeString(p.Stdout, color.New(color.FgHiYellow).Sprintf(format, v...))
}

// PrintStatus prints one line per job in the snapshot, colored by state,
// sorted for stable output across runs.
func (p *Printer) PrintStatus(snap Snapshot) {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		status := snap[name]
		line := name + ": " + status.Status
		if status.Iteration != "" {
			line += " (" + status.Iteration + ")"
		}
		switch status.Status {
		case "red":
			p.Error(line)
		case "lawngreen":
			p.Success(line)
		default:
			p.Info(line)
		}
	}
}
