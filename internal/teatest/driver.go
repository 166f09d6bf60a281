// Package teatest drives bubbletea models synchronously in tests.
//
// Update is called directly and returned commands are executed inline.
// Commands that do not return within a short window (tea.Tick refreshes,
// cursor blinks) are dropped so a test never waits on a timer.
package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	maxDepth   = 64
	cmdTimeout = 20 * time.Millisecond
)

// Driver feeds messages to a model and drains the resulting commands.
type Driver struct {
	t     *testing.T
	Model tea.Model

	// Quit is set once a tea.QuitMsg has been produced.
	Quit bool
}

// New wraps model. Call Start to run its Init command.
func New(t *testing.T, model tea.Model) *Driver {
	t.Helper()
	return &Driver{t: t, Model: model}
}

// Resize delivers a window size message.
func (d *Driver) Resize(w, h int) *Driver {
	d.Send(tea.WindowSizeMsg{Width: w, Height: h})
	return d
}

// Start executes Init and drains whatever it produces.
func (d *Driver) Start() *Driver {
	d.t.Helper()
	d.drain(d.Model.Init(), 0)
	return d
}

// Send runs msg through Update and drains the follow-up commands.
func (d *Driver) Send(msg tea.Msg) {
	d.t.Helper()
	if d.Quit {
		return
	}
	next, cmd := d.Model.Update(msg)
	d.Model = next
	d.drain(cmd, 0)
}

// Key sends a key by its string form: "enter", "esc", "up", "down",
// "ctrl+c" or a single rune.
func (d *Driver) Key(k string) {
	d.t.Helper()
	switch k {
	case "enter":
		d.Send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		d.Send(tea.KeyMsg{Type: tea.KeyEsc})
	case "up":
		d.Send(tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		d.Send(tea.KeyMsg{Type: tea.KeyDown})
	case "ctrl+c":
		d.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	default:
		d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

// View renders the current model.
func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.t.Helper()
	if cmd == nil {
		return
	}
	if depth >= maxDepth {
		d.t.Logf("teatest: command depth limit %d reached", maxDepth)
		return
	}

	msg := run(cmd)
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, sub := range msg {
			d.drain(sub, depth+1)
		}
	case tea.QuitMsg:
		d.Quit = true
	default:
		next, cmd := d.Model.Update(msg)
		d.Model = next
		d.drain(cmd, depth+1)
	}
}

func run(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(cmdTimeout):
		return nil
	}
}
