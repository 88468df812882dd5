package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:       "Driver compliance",
		GeneratedAt: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		Columns: []Column{
			{Key: "name", Label: "Driver"},
			{Key: "status", Label: "CDL Status"},
			{Key: "note"},
		},
		Rows: []map[string]string{
			{"name": "Ana, Ruiz", "status": "expired", "note": "overdue by 3 days"},
			{"name": "Bo Chen", "status": "valid"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Driver,CDL Status,note\n\"Ana, Ruiz\",expired,overdue by 3 days\nBo Chen,valid,\n", string(out))
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestRendererFor(t *testing.T) {
	r, err := RendererFor(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", r.ContentType())
	assert.Equal(t, "pdf", r.Extension())

	_, err = RendererFor("xlsx")
	assert.Error(t, err)
}
