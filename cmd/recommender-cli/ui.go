package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// UI writes human-oriented output. In JSON mode it stays silent so that
// stdout carries only the JSON document.
type UI struct {
	out      io.Writer
	errOut   io.Writer
	jsonMode bool
}

// NewUI creates a UI writing to out and errOut.
func NewUI(out, errOut io.Writer, jsonMode, noColor bool) *UI {
	if noColor {
		color.NoColor = true
	}
	return &UI{out: out, errOut: errOut, jsonMode: jsonMode}
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, color.GreenString("✓ "+format, args...))
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, color.YellowString("⚠ "+format, args...))
}

// Info prints an informational message.
func (ui *UI) Info(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, color.CyanString("ℹ "+format, args...))
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, color.New(color.FgMagenta, color.Bold).Sprintf("━━━ %s ━━━", strings.ToUpper(title)))
}

// KeyValue prints an aligned key/value line.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintf(ui.out, "  %s %v\n", color.YellowString("%-16s", key+":"), value)
}

// Println prints a plain line.
func (ui *UI) Println(s string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, s)
}

// NewProgressBar returns a bar over total items, or nil in JSON mode.
func (ui *UI) NewProgressBar(total int, description string) *progressbar.ProgressBar {
	if ui.jsonMode {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ui.errOut),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("places"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(ui.errOut)
		}),
	)
}

// Spin runs fn behind a spinner. The spinner only renders on a terminal.
func (ui *UI) Spin(message string, fn func() error) error {
	if ui.jsonMode {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(ui.errOut))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()
	return fn()
}
