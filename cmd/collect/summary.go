package main

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-dataset/internal/frame"
)

// RenderMissingTable renders the per-column missing counts taken before and after
// forward filling. before and after list the same columns in the same order.
func RenderMissingTable(before, after []frame.ColumnCount) string {
	nameWidth := len("Column")
	for _, count := range before {
		nameWidth = max(nameWidth, len(count.Column))
	}

	columns := []table.Column{
		{Title: "Column", Width: nameWidth + 2},
		{Title: "Missing before fill", Width: 20},
		{Title: "Missing after fill", Width: 20},
	}

	rows := make([]table.Row, 0, len(before))

	for i, count := range before {
		remaining := ""
		if i < len(after) {
			remaining = strconv.Itoa(after[i].Count)
		}

		rows = append(rows, table.Row{count.Column, strconv.Itoa(count.Count), remaining})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	// nothing is selectable in a printed table
	s.Selected = lipgloss.NewStyle()

	t.SetStyles(s)

	return t.View()
}
