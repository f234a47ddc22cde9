package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hobnob-dev/hobnob/pkg/client"
	"github.com/hobnob-dev/hobnob/pkg/session"
)

const (
	fieldUsername = iota
	fieldAge
	fieldHobbies
	fieldCount
)

// formModel edits a person's fields. Hobbies are a single comma separated
// input, split and trimmed on submit.
type formModel struct {
	inputs   [fieldCount]textinput.Model
	focused  int
	personID string
}

func newFormModel() formModel {
	var m formModel

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	m.inputs[fieldUsername] = username

	age := textinput.New()
	age.Placeholder = "age"
	age.CharLimit = 3
	m.inputs[fieldAge] = age

	hobbies := textinput.New()
	hobbies.Placeholder = "hobbies (comma separated)"
	m.inputs[fieldHobbies] = hobbies

	return m
}

// formFromPerson prefills the form from the coordinator's cached person.
func formFromPerson(coord *session.Coordinator, id string) formModel {
	m := newFormModel()
	m.personID = id
	if p, ok := coord.Person(id); ok {
		m.inputs[fieldUsername].SetValue(p.Username)
		m.inputs[fieldAge].SetValue(strconv.Itoa(p.Age))
		m.inputs[fieldHobbies].SetValue(strings.Join(p.Hobbies, ", "))
	}
	return m
}

func (m *formModel) focusFirst() {
	m.focused = fieldUsername
	for i := range m.inputs {
		if i == m.focused {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *formModel) blur() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *formModel) cycle(delta int) {
	m.inputs[m.focused].Blur()
	m.focused = (m.focused + delta + fieldCount) % fieldCount
	m.inputs[m.focused].Focus()
}

func (m formModel) fields() client.PersonFields {
	age, _ := strconv.Atoi(strings.TrimSpace(m.inputs[fieldAge].Value()))

	var hobbies []string
	for _, h := range strings.Split(m.inputs[fieldHobbies].Value(), ",") {
		if h = strings.TrimSpace(h); h != "" {
			hobbies = append(hobbies, h)
		}
	}

	return client.PersonFields{
		Username: strings.TrimSpace(m.inputs[fieldUsername].Value()),
		Age:      age,
		Hobbies:  hobbies,
	}
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	var cmds [fieldCount]tea.Cmd
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds[:]...)
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ctrl.CloseForm()
		m.form.blur()
		m.focus = m.returnFocus
		return m, nil

	case "tab", "down":
		m.form.cycle(1)
		return m, nil

	case "shift+tab", "up":
		m.form.cycle(-1)
		return m, nil

	case "enter":
		fields := m.form.fields()
		return m, gestureCmd(func(ctx context.Context) session.Outcome {
			return m.ctrl.SubmitForm(ctx, fields)
		})

	case "ctrl+d":
		if m.form.personID == "" {
			return m, nil
		}
		id := m.form.personID
		return m, gestureCmd(func(ctx context.Context) session.Outcome {
			return m.ctrl.DeletePerson(ctx, id)
		})
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}
