package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"start", "end", "subject"},
		Rows: []map[string]string{
			{"start": "2025-03-03T09:00:00Z", "end": "2025-03-03T10:30:00Z", "subject": "math"},
			{"start": "2025-03-03T10:30:00Z", "subject": "history, modern"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "start,end,subject\n"+
		"2025-03-03T09:00:00Z,2025-03-03T10:30:00Z,math\n"+
		"2025-03-03T10:30:00Z,,\"history, modern\"\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}
