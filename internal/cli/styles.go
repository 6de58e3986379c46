// Package cli provides styled terminal output and interactive prompts.
package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/geospice/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#FF6B6B")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				PaddingRight(2)

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	PinIcon     = "📍"
	RobotIcon   = "🤖"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// ConfidenceBar draws confidence as a ten-cell bar, e.g. "███████░░░ 70%".
func ConfidenceBar(confidence float64) string {
	confidence = model.ClampConfidence(confidence)
	filled := int(confidence / 10)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	return fmt.Sprintf("%s %.0f%%", bar, confidence)
}

// RenderSuggestion renders a suggestion card. Fallback outcomes are drawn in
// the warning color.
func RenderSuggestion(s model.Suggestion, outcome model.Outcome) string {
	accent := SuccessStyle
	if outcome.IsFallback() {
		accent = WarningStyle
	}

	lines := []string{
		TitleStyle.Render(RobotIcon + " Suggested category"),
		"",
		BoldStyle.Render("Category:   ") + accent.Render(s.Category.String()),
		BoldStyle.Render("Confidence: ") + accent.Render(ConfidenceBar(s.Confidence)),
		BoldStyle.Render("Reasoning:  ") + s.Reasoning,
	}
	if outcome != "" && outcome != model.OutcomeAccepted {
		lines = append(lines, SubtleStyle.Render("outcome: "+string(outcome)))
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// RenderExpenses renders expenses as an aligned table.
func RenderExpenses(expenses []model.Expense, currency string) string {
	if len(expenses) == 0 {
		return SubtleStyle.Render("No expenses recorded yet.")
	}

	headers := []string{"ID", "WHEN", "CATEGORY", "AMOUNT", "LOCATION", "LABEL"}
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			shortID(e.ID),
			e.DateTime,
			e.Category.String(),
			fmt.Sprintf("%s%.2f", currency, e.Amount),
			fmt.Sprintf("%.5f, %.5f", e.Latitude, e.Longitude),
			e.Label,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(TableHeaderStyle.Width(widths[i] + 2).Render(h))
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(TableCellStyle.Width(widths[i] + 2).Render(cell))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
