package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Compliance 2025-03",
		Headers: []string{"gym", "compliant", "missing"},
		Rows: []map[string]string{
			{"gym": "CCP", "compliant": "yes", "missing": ""},
			{"gym": "EST", "compliant": "no", "missing": "KIDS NIGHT OUT x1"},
		},
		Flagged: map[int]bool{1: true},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "gym,compliant,missing\nCCP,yes,\nEST,no,KIDS NIGHT OUT x1\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersDescribeOutput(t *testing.T) {
	assert.Equal(t, "text/csv", NewCSVExporter().ContentType())
	assert.Equal(t, "pdf", NewPDFExporter().Extension())
}
