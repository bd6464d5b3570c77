package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
)

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// PrintError prints an error message
func PrintError(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...interface{}) {
	warningColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, format string, args ...interface{}) {
	infoColor.Fprintf(w, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// PrintBold prints a bold message
func PrintBold(w io.Writer, format string, args ...interface{}) {
	boldColor.Fprintln(w, fmt.Sprintf(format, args...))
}

// PrintWelcomeBanner prints the banner shown when a coaching run starts.
func PrintWelcomeBanner(w io.Writer, title string) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Align(lipgloss.Center).
		Width(60)

	bannerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("86")).
		Padding(1, 2).
		Align(lipgloss.Center)

	fmt.Fprintln(w, bannerStyle.Render(titleStyle.Render(title)))
}

// PrintSuccessBox prints a success message in a box
func PrintSuccessBox(w io.Writer, title, content string) {
	fmt.Fprintln(w, Styles.SuccessBox.Render(successColor.Sprint(title)+"\n\n"+content))
}

// PrintErrorBox prints an error message in a box
func PrintErrorBox(w io.Writer, title, content string) {
	fmt.Fprintln(w, Styles.ErrorBox.Render(errorColor.Sprint(title)+"\n\n"+content))
}
