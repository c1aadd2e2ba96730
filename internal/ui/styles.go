package ui

import "fmt"

// ANSI256 color codes used by the check command's verdict output.
const (
	colorAllow = 71  // green
	colorDeny  = 167 // red
	colorMuted = 245 // medium gray
)

var noColor bool

// RenderAllow returns s in the allow (green) color.
func RenderAllow(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAllow, s)
}

// RenderDeny returns s in the deny (red) color.
func RenderDeny(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorDeny, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
