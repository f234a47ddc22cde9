package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hobnob-dev/hobnob/pkg/graph"
	"github.com/hobnob-dev/hobnob/pkg/session"
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("205"))

	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true) // Orange
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))             // Blue

	dialogStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 3)
)

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n %s Loading social graph...\n", m.spinner.View())
	}

	header := headerStyle.Render("hobnob") +
		subtleStyle.Render(fmt.Sprintf("  %d people, %d friendships", len(m.graph.Nodes), len(m.graph.Edges)))

	var body string
	switch m.focus {
	case focusForm:
		body = m.formView()
	case focusConfirm:
		body = dialogStyle.Render(m.confirm.prompt + "\n\n" + subtleStyle.Render("y: yes  n: no"))
	default:
		graphPane := m.paneFor(focusGraph).Render(m.graphView())
		sidebar := m.paneFor(focusSidebar).Render(m.sidebarView())
		body = lipgloss.JoinHorizontal(lipgloss.Top, graphPane, sidebar)
	}

	var status []string
	if m.err != nil {
		status = append(status, errorStyle.Render("refresh failed: "+m.err.Error()))
	}
	if _, pending := m.ctrl.State().PendingMutation(); pending {
		status = append(status, m.spinner.View()+" saving...")
	}
	for _, t := range m.toasts {
		if t.isErr {
			status = append(status, errorStyle.Render(t.text))
		} else {
			status = append(status, okStyle.Render(t.text))
		}
	}

	parts := []string{header, body}
	if len(status) > 0 {
		parts = append(parts, strings.Join(status, "\n"))
	}
	parts = append(parts, subtleStyle.Render(m.helpLine()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m model) paneFor(area focusArea) lipgloss.Style {
	if m.focus == area {
		return focusedPaneStyle
	}
	return paneStyle
}

func (m model) graphView() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("People") + "\n\n")

	if len(m.graph.Nodes) == 0 {
		b.WriteString(subtleStyle.Render("no people yet, press n to add one"))
		return b.String()
	}

	for i, node := range m.graph.Nodes {
		cursor := "  "
		if !m.edgeMode && i == m.nodeIdx {
			cursor = cursorStyle.Render("> ")
		}

		label := fmt.Sprintf("%-16s", node.Username)
		if node.Variant == graph.VariantHigh {
			label = highStyle.Render(label)
		} else {
			label = lowStyle.Render(label)
		}

		marks := ""
		if node.ID == m.connectFrom {
			marks = cursorStyle.Render(" [connecting]")
		}
		if node.ID == m.ctrl.State().SelectedPersonID() {
			marks += subtleStyle.Render(" *")
		}

		b.WriteString(fmt.Sprintf("%s%s %s  %s%s\n",
			cursor, label,
			subtleStyle.Render(fmt.Sprintf("score %.1f", node.Score)),
			subtleStyle.Render(fmt.Sprintf("(%.0f, %.0f)", node.Position.X, node.Position.Y)),
			marks))
	}

	b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Underline(true).Render("Friendships") + "\n\n")
	if len(m.graph.Edges) == 0 {
		b.WriteString(subtleStyle.Render("none"))
		return b.String()
	}
	for i, edge := range m.graph.Edges {
		cursor := "  "
		if m.edgeMode && i == m.edgeIdx {
			cursor = cursorStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s -- %s\n", cursor, m.username(edge.Source), m.username(edge.Target)))
	}
	return b.String()
}

func (m model) username(id string) string {
	if node, ok := m.graph.Node(id); ok {
		return node.Username
	}
	return id
}

func (m model) sidebarView() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("Hobbies") + "\n\n")

	if len(m.hobbies) == 0 {
		b.WriteString(subtleStyle.Render("none yet"))
		return b.String()
	}

	dragged := m.ctrl.State().DraggedHobby()
	for i, hobby := range m.hobbies {
		cursor := "  "
		if m.focus == focusSidebar && i == m.hobbyIdx {
			cursor = cursorStyle.Render("> ")
		}
		line := hobby
		if hobby == dragged {
			line = cursorStyle.Render(line + " [carrying]")
		}
		b.WriteString(cursor + line + "\n")
	}
	return b.String()
}

func (m model) formView() string {
	title := "New Person"
	if m.ctrl.State().FormState() == session.FormEditing {
		title = "Edit " + m.username(m.form.personID)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render(title) + "\n\n")
	labels := [fieldCount]string{"Username", "Age", "Hobbies"}
	for i := range m.form.inputs {
		b.WriteString(fmt.Sprintf("%-9s %s\n", labels[i], m.form.inputs[i].View()))
	}
	if m.form.personID != "" {
		b.WriteString("\n" + subtleStyle.Render("ctrl+d: delete person"))
	}
	return focusedPaneStyle.Render(b.String())
}

func (m model) helpLine() string {
	switch m.focus {
	case focusForm:
		return "enter: save  tab: next field  esc: cancel"
	case focusConfirm:
		return "y: confirm  n: cancel"
	case focusSidebar:
		return "j/k: move  enter: pick up hobby  tab: graph  q: quit"
	default:
		if m.ctrl.State().DraggedHobby() != "" {
			return "j/k: move  enter: drop hobby here  esc: cancel"
		}
		return "j/k: move  enter: edit  n: new  c: connect  e: edges  x: disconnect  r: refresh  tab: hobbies  q: quit"
	}
}
