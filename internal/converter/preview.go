package converter

import "github.com/nconklindev/sheetpdf/internal/types"

// PreviewRowLimit is the number of rows shown on screen before truncating.
const PreviewRowLimit = 10

// RenderPreview samples the first rowLimit rows of t for display. A non-positive
// limit uses PreviewRowLimit. The table is not modified.
func RenderPreview(t *types.Table, rowLimit int) types.Preview {
	if rowLimit <= 0 {
		rowLimit = PreviewRowLimit
	}
	if t == nil {
		return types.Preview{Headers: []string{}, Rows: [][]string{}}
	}

	n := min(rowLimit, len(t.Rows))
	preview := types.Preview{
		Headers: append([]string{}, t.Headers...),
		Rows:    make([][]string, 0, n),
		Total:   len(t.Rows),
	}
	for i := 0; i < n; i++ {
		preview.Rows = append(preview.Rows, t.Cells(i))
	}
	return preview
}
