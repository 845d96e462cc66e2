package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leandrodaf/synthctl/sdk/contracts"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	indexStyle = lipgloss.NewStyle().Width(4).Align(lipgloss.Right).Foreground(lipgloss.Color("#666666"))
	nameStyle  = lipgloss.NewStyle().PaddingLeft(2)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	emptyStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#666666")).PaddingLeft(2)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
)

// row is one line of a listing: a name and an optional value.
type row struct {
	name, value string
}

func renderPorts(title string, ports []contracts.PortInfo) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if len(ports) == 0 {
		b.WriteString(emptyStyle.Render("none"))
		b.WriteString("\n")
		return b.String()
	}
	for _, port := range ports {
		b.WriteString(indexStyle.Render(fmt.Sprint(port.Index)))
		b.WriteString(nameStyle.Render(port.Name))
		b.WriteString("\n")
	}
	return b.String()
}

func renderRows(title string, rows []row) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(emptyStyle.Render("none"))
		b.WriteString("\n")
		return b.String()
	}
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.name))
	}
	keyStyle := nameStyle.Width(width + 4)
	for _, r := range rows {
		b.WriteString(keyStyle.Render(r.name))
		b.WriteString(valueStyle.Render(r.value))
		b.WriteString("\n")
	}
	return b.String()
}

func renderError(err error) string {
	return errorStyle.Render(err.Error()) + "\n"
}
