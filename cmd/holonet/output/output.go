// Package output prints styled status lines for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

var out io.Writer = os.Stdout

// SetOutput redirects every printer in the package. It returns the previous
// writer.
func SetOutput(w io.Writer) io.Writer {
	prev := out
	out = w
	return prev
}

func line(icon string, format string, args ...any) {
	fmt.Fprint(out, icon)
	fmt.Fprintf(out, format+"\n", args...)
}

// Success prints a success message.
func Success(format string, args ...any) { line(successStyle.Render("✓ "), format, args...) }

// Warning prints a warning message.
func Warning(format string, args ...any) { line(warningStyle.Render("⚠ "), format, args...) }

// Error prints an error message.
func Error(format string, args ...any) { line(errorStyle.Render("✗ "), format, args...) }

// Info prints an info message.
func Info(format string, args ...any) { line(infoStyle.Render("ℹ "), format, args...) }

// Muted prints a muted message.
func Muted(format string, args ...any) {
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header.
func Section(title string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, primaryStyle.Render(title))
	fmt.Fprintln(out, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
	fmt.Fprintln(out)
}

// StatusIcon returns a colored icon for a migration status.
func StatusIcon(status string) string {
	switch status {
	case "applied":
		return successStyle.Render("✓")
	case "pending":
		return warningStyle.Render("○")
	case "missing":
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("•")
	}
}
