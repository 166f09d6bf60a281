package cli

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/teatest"
)

func TestDashModel_DrillDownAndBack(t *testing.T) {
	app := testApp(t, true)
	seedRadar(t, app)
	m := newDashModel(context.Background(), app, 0)

	assert.Contains(t, m.View(), "Loading...")

	msg := m.loadStatus()()
	_, cmd := m.Update(msg)
	assert.Nil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "RAD01")
	assert.Contains(t, view, "Radar upgrade")
	assert.Contains(t, view, "0/9")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	health, ok := cmd().(healthLoadedMsg)
	require.True(t, ok)
	require.NoError(t, health.err)
	m.Update(health)
	assert.Contains(t, m.View(), "STAGES AS OF")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.detail)
	assert.Contains(t, m.View(), "portfolio health")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestDashModel_EnterWithoutStatusIsNoop(t *testing.T) {
	m := newDashModel(context.Background(), testApp(t, true), 0)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Nil(t, m.tick(), "refresh 0 disables ticking")
}

func TestDashModel_Driver(t *testing.T) {
	app := testApp(t, true)
	seedRadar(t, app)

	d := teatest.New(t, newDashModel(context.Background(), app, time.Hour)).Resize(120, 30).Start()
	assert.Contains(t, d.View(), "RAD01")
	assert.Contains(t, d.View(), "as of")

	d.Key("enter")
	assert.Contains(t, d.View(), "STAGES AS OF")

	d.Key("r")
	assert.Contains(t, d.View(), "STAGES AS OF")

	d.Key("esc")
	assert.Contains(t, d.View(), "Radar upgrade")
	assert.False(t, d.Quit)

	d.Key("q")
	assert.True(t, d.Quit)
}
