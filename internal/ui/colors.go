package ui

import "os"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Enabled turns colouring on or off; NO_COLOR disables it at startup
var Enabled = os.Getenv("NO_COLOR") == ""

func paint(style, s string) string {
	if !Enabled {
		return s
	}
	return style + s + ColorReset
}

// Bold emphasises identifiers such as the job ID
func Bold(s string) string {
	return paint(ColorBold, s)
}

// Success marks a completed step
func Success(s string) string {
	return paint(ColorGreen, s)
}

// Info dims secondary notes in the summary
func Info(s string) string {
	return paint(ColorDim+ColorYellow, s)
}

// Error colours the top-level error message
func Error(s string) string {
	return paint(ColorRed, s)
}

// Path highlights a file system path
func Path(s string) string {
	return paint(ColorCyan, s)
}
