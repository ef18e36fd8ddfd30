package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/law-makers/crawlmd/internal/ui"
	"github.com/spf13/cobra"
)

// style returns the escape sequence, or nothing when colour is off
func style(codes ...string) string {
	if !ui.Enabled {
		return ""
	}
	return strings.Join(codes, "")
}

// customHelpFunc provides a colorized help output
func customHelpFunc(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()
	reset := style(ui.ColorReset)
	heading := style(ui.ColorBold, ui.ColorWhite)

	fmt.Fprintf(w, "\n%s%s%s\n", style(ui.ColorBold, ui.ColorCyan), strings.ToUpper(cmd.Name()), reset)

	if cmd.Short != "" {
		fmt.Fprintf(w, "%s\n", cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", wrapText(cmd.Long, 80))
	}

	fmt.Fprintf(w, "\n%sUsage%s\n", heading, reset)
	fmt.Fprintf(w, "  %s%s%s\n", style(ui.ColorCyan), cmd.UseLine(), reset)

	if cmd.HasExample() {
		fmt.Fprintf(w, "\n%sExamples%s\n", heading, reset)
		lastWasCommand := false
		for _, example := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(example)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "#") {
				if lastWasCommand {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "  %s%s%s\n", style(ui.ColorDim), trimmed, reset)
				lastWasCommand = false
			} else {
				fmt.Fprintf(w, "  %s$ %s%s\n", style(ui.ColorGreen), trimmed, reset)
				lastWasCommand = true
			}
		}
	}

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(w, "\n%sFlags%s\n", heading, reset)
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintf(w, "\n%sGlobal Flags%s\n", heading, reset)
		printFlagsTo(w, cmd.InheritedFlags().FlagUsages())
	}
	fmt.Fprintln(w)
}

// customUsageFunc provides a colorized usage output
func customUsageFunc(cmd *cobra.Command) error {
	w := cmd.ErrOrStderr()
	reset := style(ui.ColorReset)

	fmt.Fprintf(w, "\n%sUsage%s\n", style(ui.ColorBold, ui.ColorWhite), reset)
	fmt.Fprintf(w, "  %s%s%s\n", style(ui.ColorCyan), cmd.UseLine(), reset)

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(w, "\n%sFlags%s\n", style(ui.ColorBold, ui.ColorWhite), reset)
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}

	fmt.Fprintf(w, "\n%sUse \"%s%s%s %s--help%s\" for more information.%s\n",
		style(ui.ColorDim),
		style(ui.ColorCyan), cmd.CommandPath(), reset+style(ui.ColorDim),
		style(ui.ColorGreen), reset+style(ui.ColorDim),
		reset)

	return nil
}

// printFlagsTo prints flag usages aligned in two coloured columns
func printFlagsTo(w io.Writer, flagUsages string) {
	lines := strings.Split(flagUsages, "\n")

	maxFlagLen := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flagPart := strings.TrimSpace(strings.SplitN(trimmed, "  ", 2)[0])
			if len(flagPart) > maxFlagLen {
				maxFlagLen = len(flagPart)
			}
		}
	}

	reset := style(ui.ColorReset)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, "-") {
			// Continuation of the previous description
			fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", maxFlagLen+4), style(ui.ColorDim), trimmed, reset)
			continue
		}

		parts := strings.SplitN(trimmed, "  ", 2)
		if len(parts) != 2 {
			fmt.Fprintf(w, "  %s%s%s\n", style(ui.ColorGreen), trimmed, reset)
			continue
		}
		flagPart := strings.TrimSpace(parts[0])
		descPart := strings.TrimSpace(parts[1])
		padding := strings.Repeat(" ", maxFlagLen-len(flagPart)+2)

		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			style(ui.ColorGreen), flagPart, reset,
			padding,
			style(ui.ColorDim), descPart, reset)
	}
}

// wrapText wraps text at the specified width while preserving paragraphs
func wrapText(text string, width int) string {
	var wrappedParagraphs []string

	for _, para := range strings.Split(text, "\n\n") {
		var wrappedLines []string

		for _, line := range strings.Split(para, "\n") {
			trimmedLine := strings.TrimSpace(line)
			if trimmedLine == "" {
				continue
			}

			// List items keep their own line
			if strings.HasPrefix(trimmedLine, "-") || strings.HasPrefix(trimmedLine, "*") {
				wrappedLines = append(wrappedLines, trimmedLine)
				continue
			}

			var currentLine strings.Builder
			for _, word := range strings.Fields(trimmedLine) {
				switch {
				case currentLine.Len() == 0:
					currentLine.WriteString(word)
				case currentLine.Len()+1+len(word) <= width:
					currentLine.WriteString(" ")
					currentLine.WriteString(word)
				default:
					wrappedLines = append(wrappedLines, currentLine.String())
					currentLine.Reset()
					currentLine.WriteString(word)
				}
			}
			if currentLine.Len() > 0 {
				wrappedLines = append(wrappedLines, currentLine.String())
			}
		}

		if len(wrappedLines) > 0 {
			wrappedParagraphs = append(wrappedParagraphs, strings.Join(wrappedLines, "\n"))
		}
	}

	return strings.Join(wrappedParagraphs, "\n\n")
}
