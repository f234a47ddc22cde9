package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hobnob-dev/hobnob/pkg/client"
	"github.com/hobnob-dev/hobnob/pkg/graph"
	"github.com/hobnob-dev/hobnob/pkg/session"
)

const (
	pollRate      = 5 * time.Second
	toastDuration = 4 * time.Second
)

type focusArea int

const (
	focusGraph focusArea = iota
	focusSidebar
	focusForm
	focusConfirm
)

// Messages

type tickMsg time.Time

type refreshedMsg struct {
	err error
}

type outcomeMsg struct {
	outcome session.Outcome
}

// confirmRequestMsg is sent from a gesture goroutine when the controller
// needs a yes/no answer. The Update loop shows the dialog and answers over
// the reply channel, unblocking the controller.
type confirmRequestMsg struct {
	prompt string
	reply  chan bool
}

type toastExpiredMsg struct{}

type toast struct {
	text  string
	isErr bool
}

// confirmer adapts the blocking session.ConfirmFunc to the message loop.
type confirmer struct {
	program *tea.Program
}

func (c *confirmer) confirm(prompt string) bool {
	reply := make(chan bool, 1)
	c.program.Send(confirmRequestMsg{prompt: prompt, reply: reply})
	return <-reply
}

type model struct {
	ctrl  *session.Controller
	coord *session.Coordinator

	spinner spinner.Model
	graph   graph.VisualGraph
	persons []client.Person
	hobbies []string
	ready   bool
	err     error

	focus       focusArea
	returnFocus focusArea // where to go back after form/confirm
	nodeIdx     int
	edgeIdx     int
	edgeMode    bool
	hobbyIdx    int
	connectFrom string

	form    formModel
	confirm *confirmRequestMsg
	toasts  []toast

	width  int
	height int
}

func initialModel(ctrl *session.Controller, coord *session.Coordinator) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		ctrl:    ctrl,
		coord:   coord,
		spinner: s,
		form:    newFormModel(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		refreshCmd(m.coord),
		tick(),
	)
}

// refreshCmd re-fetches the canonical snapshot.
func refreshCmd(coord *session.Coordinator) tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: coord.Refresh(context.Background())}
	}
}

// gestureCmd runs a mutation gesture off the event loop; the controller
// blocks through store call, refresh and any confirmation dialogs.
func gestureCmd(run func(ctx context.Context) session.Outcome) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg{outcome: run(context.Background())}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func expireToast() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		// Background poll keeps the canonical snapshot fresh; the last
		// refresh to resolve wins.
		return m, tea.Batch(refreshCmd(m.coord), tick())

	case refreshedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.pullSnapshot()
			m.ready = true
		}
		return m, nil

	case outcomeMsg:
		m.pullSnapshot()
		return m.applyOutcome(msg.outcome)

	case confirmRequestMsg:
		m.confirm = &msg
		if m.focus != focusConfirm {
			m.returnFocus = m.focus
		}
		m.focus = focusConfirm
		return m, nil

	case toastExpiredMsg:
		if len(m.toasts) > 0 {
			m.toasts = m.toasts[1:]
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusForm {
		m.form, cmd = m.form.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// pullSnapshot copies the coordinator's reconciled state into the view
// model and rebuilds the hobby catalogue from it.
func (m *model) pullSnapshot() {
	if vg, ok := m.coord.Snapshot(); ok {
		m.graph = vg
	}
	m.persons = m.coord.Persons()
	sort.Slice(m.persons, func(i, j int) bool { return m.persons[i].Username < m.persons[j].Username })
	m.hobbies = hobbyCatalogue(m.persons)

	if m.nodeIdx >= len(m.graph.Nodes) {
		m.nodeIdx = 0
	}
	if m.edgeIdx >= len(m.graph.Edges) {
		m.edgeIdx = 0
	}
	if m.hobbyIdx >= len(m.hobbies) {
		m.hobbyIdx = 0
	}
}

// hobbyCatalogue lists every distinct hobby across persons, most common
// first, ties alphabetical.
func hobbyCatalogue(persons []client.Person) []string {
	counts := make(map[string]int)
	for _, p := range persons {
		for _, h := range p.Hobbies {
			counts[h]++
		}
	}
	hobbies := make([]string, 0, len(counts))
	for h := range counts {
		hobbies = append(hobbies, h)
	}
	sort.Slice(hobbies, func(i, j int) bool {
		if counts[hobbies[i]] != counts[hobbies[j]] {
			return counts[hobbies[i]] > counts[hobbies[j]]
		}
		return hobbies[i] < hobbies[j]
	})
	return hobbies
}

func (m model) applyOutcome(outcome session.Outcome) (tea.Model, tea.Cmd) {
	switch outcome.Kind {
	case session.OutcomeSuccess:
		if m.focus == focusForm && m.ctrl.State().FormState() == session.FormClosed {
			m.focus = focusGraph
			m.form.blur()
		}
		return m.pushToast(successText(outcome), false)
	case session.OutcomeDeclined:
		return m, nil
	default:
		return m.pushToast(outcome.Message, true)
	}
}

func successText(outcome session.Outcome) string {
	switch outcome.Intent.Kind {
	case session.IntentCreateFriendship:
		return "Users connected successfully!"
	case session.IntentRemoveFriendship:
		return "Friendship removed successfully!"
	case session.IntentAssignHobby:
		return fmt.Sprintf("Added %q!", outcome.Intent.Hobby)
	case session.IntentCreatePerson:
		return "User created successfully!"
	case session.IntentUpdatePerson:
		return "User updated successfully!"
	case session.IntentDeletePerson:
		return "User deleted successfully!"
	default:
		return "Done!"
	}
}

func (m model) pushToast(text string, isErr bool) (tea.Model, tea.Cmd) {
	if text == "" {
		return m, nil
	}
	m.toasts = append(m.toasts, toast{text: text, isErr: isErr})
	return m, expireToast()
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The confirm dialog captures every key while visible.
	if m.focus == focusConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			m.confirm.reply <- true
		case "n", "N", "esc", "q":
			m.confirm.reply <- false
		default:
			return m, nil
		}
		m.confirm = nil
		m.focus = m.returnFocus
		return m, nil
	}

	if m.focus == focusForm {
		return m.handleFormKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.focus == focusGraph {
			m.focus = focusSidebar
		} else {
			m.focus = focusGraph
		}
		return m, nil

	case "r":
		return m, refreshCmd(m.coord)

	case "n":
		m.ctrl.OpenCreateForm()
		m.form = newFormModel()
		m.form.focusFirst()
		m.returnFocus = m.focus
		m.focus = focusForm
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleGraphKey(msg)
}

func (m model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.hobbyIdx > 0 {
			m.hobbyIdx--
		}
	case "down", "j":
		if m.hobbyIdx < len(m.hobbies)-1 {
			m.hobbyIdx++
		}
	case "enter", " ":
		// Pick the hobby up; dropping happens on a node in the graph pane.
		if m.hobbyIdx < len(m.hobbies) {
			m.ctrl.BeginHobbyDrag(m.hobbies[m.hobbyIdx])
			m.focus = focusGraph
		}
	case "esc":
		m.ctrl.EndHobbyDrag()
	}
	return m, nil
}

func (m model) handleGraphKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.edgeMode {
			if m.edgeIdx > 0 {
				m.edgeIdx--
			}
		} else if m.nodeIdx > 0 {
			m.nodeIdx--
		}

	case "down", "j":
		if m.edgeMode {
			if m.edgeIdx < len(m.graph.Edges)-1 {
				m.edgeIdx++
			}
		} else if m.nodeIdx < len(m.graph.Nodes)-1 {
			m.nodeIdx++
		}

	case "e":
		m.edgeMode = !m.edgeMode

	case "enter":
		if m.edgeMode || m.nodeIdx >= len(m.graph.Nodes) {
			return m, nil
		}
		node := m.graph.Nodes[m.nodeIdx]
		if dragged := m.ctrl.State().DraggedHobby(); dragged != "" {
			// Drop the carried hobby on the selected node.
			return m, gestureCmd(func(ctx context.Context) session.Outcome {
				return m.ctrl.DropHobbyOnNode(ctx, node.ID, dragged)
			})
		}
		m.ctrl.SelectNode(node.ID)
		m.form = formFromPerson(m.coord, node.ID)
		m.form.focusFirst()
		m.returnFocus = focusGraph
		m.focus = focusForm

	case "c":
		if m.edgeMode || m.nodeIdx >= len(m.graph.Nodes) {
			return m, nil
		}
		node := m.graph.Nodes[m.nodeIdx]
		if m.connectFrom == "" {
			m.connectFrom = node.ID
			return m, nil
		}
		source, target := m.connectFrom, node.ID
		m.connectFrom = ""
		return m, gestureCmd(func(ctx context.Context) session.Outcome {
			return m.ctrl.ConnectNodes(ctx, source, target)
		})

	case "x":
		if m.edgeMode && m.edgeIdx < len(m.graph.Edges) {
			edge := m.graph.Edges[m.edgeIdx]
			return m, gestureCmd(func(ctx context.Context) session.Outcome {
				return m.ctrl.DisconnectEdge(ctx, edge.Source, edge.Target)
			})
		}

	case "esc":
		m.connectFrom = ""
		m.ctrl.EndHobbyDrag()
	}
	return m, nil
}

func main() {
	c := client.NewClient(os.Getenv("HOBNOB_STORE_URL"))
	coord := session.NewCoordinator(c)
	conf := &confirmer{}
	ctrl := session.NewController(session.NewState(), coord, conf.confirm)

	p := tea.NewProgram(initialModel(ctrl, coord), tea.WithAltScreen())
	conf.program = p

	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
