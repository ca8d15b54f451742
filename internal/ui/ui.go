// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	nameColor    = color.New(color.FgCyan)
	sqlColor     = color.New(color.FgWhite, color.Bold)
)

// Printer writes styled output to W.
type Printer struct {
	W io.Writer
	// Pretty renders SQL as a highlighted markdown code block.
	Pretty bool
}

// Header prints a bordered title block.
func (p *Printer) Header(title, subtitle string) {
	width := 80
	if w := pterm.GetTerminalWidth(); w > 0 && w < width {
		width = w
	}
	header := lipgloss.NewStyle().
		Width(width-2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			TitleStyle.Render(title),
			SecondaryStyle.Render(subtitle),
		))
	fmt.Fprintln(p.W, header)
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...any) {
	successColor.Fprintln(p.W, "✓ "+fmt.Sprintf(format, args...))
}

// Error prints a red cross line.
func (p *Printer) Error(format string, args ...any) {
	errorColor.Fprintln(p.W, "✗ "+fmt.Sprintf(format, args...))
}

// Warning prints a yellow warning line.
func (p *Printer) Warning(format string, args ...any) {
	warningColor.Fprintln(p.W, "⚠ "+fmt.Sprintf(format, args...))
}

// SQL prints command text.
func (p *Printer) SQL(text string) error {
	if !p.Pretty {
		sqlColor.Fprintln(p.W, text)
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render("```sql\n" + text + "\n```\n")
	if err != nil {
		return err
	}
	fmt.Fprint(p.W, out)
	return nil
}

// Params prints name = value lines.
func (p *Printer) Params(names []string, values []any) {
	for i, name := range names {
		nameColor.Fprint(p.W, name)
		fmt.Fprintf(p.W, " = %#v\n", values[i])
	}
}

// Table prints rows under headers.
func (p *Printer) Table(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(p.W, out)
	return nil
}

// Confirm asks a yes/no question on the terminal.
func Confirm(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	return ok, err
}

// Cell formats a result value for a table.
func Cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case string:
		return strings.TrimSpace(v)
	}
	return fmt.Sprint(v)
}
