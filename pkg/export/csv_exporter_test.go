package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Columns: []Column{{Key: "year", Title: "Academic Year"}, {Key: "net", Title: "Net Payable"}, {Key: "note"}},
		Rows: []map[string]string{
			{"year": "First Year", "net": "60000"},
			{"year": "Second Year, repeat", "net": "50000", "note": "unregistered"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Academic Year,Net Payable,note\nFirst Year,60000,\n\"Second Year, repeat\",50000,unregistered\n", string(out))
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}
