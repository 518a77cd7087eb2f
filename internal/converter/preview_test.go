package converter

import (
	"context"
	"fmt"
	"testing"

	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableWithRows(n int) *types.Table {
	table := &types.Table{Headers: []string{"ID", "Note"}}
	for i := 1; i <= n; i++ {
		table.Rows = append(table.Rows, types.RowRecord{"ID": types.NumberValue(float64(i))})
	}
	return table
}

func TestRenderPreview(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		limit     int
		shown     int
		truncated bool
		notice    string
	}{
		{"Fewer rows than limit", 3, 10, 3, false, ""},
		{"Exactly the limit", 10, 10, 10, false, ""},
		{"More rows than limit", 15, 10, 10, true, "Showing 10 of 15 rows"},
		{"Default limit", 12, 0, 10, true, "Showing 10 of 12 rows"},
		{"Custom limit", 12, 5, 5, true, "Showing 5 of 12 rows"},
		{"No rows", 0, 10, 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preview := RenderPreview(tableWithRows(tt.rows), tt.limit)
			assert.Len(t, preview.Rows, tt.shown)
			assert.Equal(t, tt.rows, preview.Total)
			assert.Equal(t, tt.truncated, preview.Truncated())
			assert.Equal(t, tt.notice, preview.Notice())
		})
	}
}

func TestRenderPreview_Cells(t *testing.T) {
	table, err := Extract(context.Background(), workbook(t, [][]any{{"Name", "Age"}, {"Alice", 30}}), ExtractOptions{})
	require.NoError(t, err)

	preview := RenderPreview(table, PreviewRowLimit)
	assert.Equal(t, []string{"Name", "Age"}, preview.Headers)
	assert.Equal(t, [][]string{{"Alice", "30"}}, preview.Rows)
	assert.Empty(t, preview.Notice())
}

func TestRenderPreview_MissingValuesAreBlank(t *testing.T) {
	preview := RenderPreview(tableWithRows(2), PreviewRowLimit)
	for _, row := range preview.Rows {
		assert.Equal(t, "", row[1])
		for _, cell := range row {
			assert.NotContains(t, []string{"null", "undefined", "<nil>"}, cell)
		}
	}
}

func TestRenderPreview_DoesNotMutate(t *testing.T) {
	table := tableWithRows(15)
	before := fmt.Sprintf("%#v", table)

	preview := RenderPreview(table, 10)
	preview.Headers[0] = "changed"
	preview.Rows[0][0] = "changed"

	assert.Equal(t, before, fmt.Sprintf("%#v", table))
}

func TestRenderPreview_EmptyTable(t *testing.T) {
	table, err := Extract(context.Background(), workbook(t, nil), ExtractOptions{})
	require.NoError(t, err)

	preview := RenderPreview(table, PreviewRowLimit)
	assert.Empty(t, preview.Headers)
	assert.Empty(t, preview.Rows)
	assert.False(t, preview.Truncated())

	assert.NotPanics(t, func() { RenderPreview(nil, PreviewRowLimit) })
}
