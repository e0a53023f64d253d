// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/runway/internal/aggregator"
)

const outputTailLines = 12

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	terminatedStyle = lipgloss.NewStyle().Faint(true)
	outputStyle     = lipgloss.NewStyle().Faint(true)
)

// RowState is the displayed state of one runnable.
type RowState int

// Row states.
const (
	RowRunning RowState = iota
	RowSucceeded
	RowFailed
	RowTerminated
)

// LineMsg carries one line of merged process output.
type LineMsg struct {
	Label string
	Line  string
}

// SettledMsg reports that a runnable's handle resolved.
type SettledMsg struct {
	Label string
	State RowState
}

// StatusMsg carries the aggregate batch status.
type StatusMsg struct {
	Status aggregator.Status
}

// DoneMsg tells the model that every handle has resolved and it may quit.
type DoneMsg struct{}

type row struct {
	label string
	state RowState
}

// Model is the bubbletea model for a running batch.
type Model struct {
	spinner spinner.Model
	rows    []row
	index   map[string]int
	lines   []string
	status  aggregator.Status
	done    bool
	quitted bool
}

// NewModel creates a model with one running row per label, in order.
func NewModel(labels []string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pendingStyle

	m := &Model{
		spinner: sp,
		index:   make(map[string]int, len(labels)),
		status:  aggregator.StatusPending,
	}

	for i, label := range labels {
		m.rows = append(m.rows, row{label: label, state: RowRunning})
		m.index[label] = i
	}

	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitted = true

			return m, tea.Quit
		}

	case LineMsg:
		m.lines = append(m.lines, strings.TrimRight(msg.Line, "\n"))
		if len(m.lines) > outputTailLines {
			m.lines = m.lines[len(m.lines)-outputTailLines:]
		}

		return m, nil

	case SettledMsg:
		if i, ok := m.index[msg.Label]; ok {
			m.rows[i].state = msg.State
		}

		return m, nil

	case StatusMsg:
		m.status = msg.Status

		return m, nil

	case DoneMsg:
		m.done = true

		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// Quitted reports whether the user aborted the view before the batch ended.
func (m *Model) Quitted() bool {
	return m.quitted
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("runway"))
	b.WriteString("  ")
	b.WriteString(renderStatus(m.status))
	b.WriteString("\n\n")

	for _, r := range m.rows {
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	if len(m.lines) > 0 {
		b.WriteString("\n")

		for _, line := range m.lines {
			b.WriteString(outputStyle.Render(line))
			b.WriteString("\n")
		}
	}

	if !m.done {
		b.WriteString("\nPress q to stop watching.\n")
	}

	return b.String()
}

func (m *Model) renderRow(r row) string {
	switch r.state {
	case RowSucceeded:
		return fmt.Sprintf("%s %s", successStyle.Render("✓"), r.label)
	case RowFailed:
		return fmt.Sprintf("%s %s", failStyle.Render("✗"), r.label)
	case RowTerminated:
		return terminatedStyle.Render(fmt.Sprintf("- %s (terminated)", r.label))
	default:
		return fmt.Sprintf("%s %s", m.spinner.View(), r.label)
	}
}

func renderStatus(s aggregator.Status) string {
	switch s {
	case aggregator.StatusAllSucceeded:
		return successStyle.Render(s.String())
	case aggregator.StatusAnyFailed:
		return failStyle.Render(s.String())
	case aggregator.StatusNeverStarted:
		return terminatedStyle.Render(s.String())
	default:
		return pendingStyle.Render(s.String())
	}
}
