package holidayfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/domain"
)

const sample = `
[[holiday]]
date = 2026-08-15
name = "Independence Day"

[[holiday]]
date = "2026-03-04"
name = " Holi "
`

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Holi", got[0].Name)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, "Independence Day", got[1].Name)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"duplicate", "[[holiday]]\ndate = 2026-03-04\nname = \"a\"\n[[holiday]]\ndate = 2026-03-04\nname = \"b\"\n"},
		{"no name", "[[holiday]]\ndate = 2026-03-04\n"},
		{"no date", "[[holiday]]\nname = \"x\"\n"},
		{"unknown key", "[[holiday]]\ndate = 2026-03-04\nname = \"x\"\nregion = \"north\"\n"},
		{"not toml", "holiday = ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestWrite_ReadsBack(t *testing.T) {
	in := []domain.Holiday{{Date: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), Name: "Gandhi Jayanti"}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	assert.Contains(t, buf.String(), "date = 2026-10-02", "dates are written as TOML local dates")
	out, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

type recordingSyncer struct {
	mu    sync.Mutex
	calls [][]domain.Holiday
}

func (s *recordingSyncer) Sync(_ context.Context, holidays []domain.Holiday) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, holidays)
	return len(holidays), nil
}

func TestWatcher_SyncsOnStartAndChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holidays.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	syncer := &recordingSyncer{}
	w := NewWatcher(path, syncer, nil)
	w.debounce = 20 * time.Millisecond
	w.synced = make(chan int, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case n := <-w.synced:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial sync")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(sample+"\n[[holiday]]\ndate = 2026-10-02\nname = \"Gandhi Jayanti\"\n"), 0o644))
	select {
	case n := <-w.synced:
		assert.Equal(t, 3, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no sync after change")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_SkipsMissingAndInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holidays.toml")
	syncer := &recordingSyncer{}
	w := NewWatcher(path, syncer, nil)

	w.reload(context.Background())
	require.NoError(t, os.WriteFile(path, []byte("[[holiday]]\nname = \"x\"\n"), 0o644))
	w.reload(context.Background())

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	assert.Empty(t, syncer.calls)
}
