package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"FS", "IPA", "AON", "BM", "COB", "PNC", "SO", "ACC", "PAY"}, c.Codes())

	so, ok := c.Lookup("so")
	require.True(t, ok)
	assert.Equal(t, "Supply Order", so.Name)
	assert.Equal(t, 10, so.DurationDays)
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]string{
		"empty":          "stages: []",
		"missing code":   "stages:\n  - name: x\n    duration_days: 1",
		"duplicate":      "stages:\n  - code: a\n    duration_days: 1\n  - code: A\n    duration_days: 2",
		"zero duration":  "stages:\n  - code: a\n    duration_days: 0",
		"malformed yaml": "stages: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stages:\n  - code: rfp\n    name: request for proposal\n    duration_days: 4\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Stages, 1)
	assert.Equal(t, "RFP", c.Stages[0].Code)
	assert.Equal(t, "Request For Proposal", c.Stages[0].Name)

	c, err = Load("")
	require.NoError(t, err)
	assert.Len(t, c.Stages, 9)
}
