package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nconklindev/sheetpdf/internal/artifact"
	"github.com/nconklindev/sheetpdf/internal/config"
	"github.com/nconklindev/sheetpdf/internal/converter"
	"github.com/nconklindev/sheetpdf/internal/session"
	"github.com/nconklindev/sheetpdf/internal/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	controller := session.NewController(store)
	t.Cleanup(func() { _ = controller.Close() })

	cfg := config.Default()
	cfg.StartDir = t.TempDir()
	cfg.OutputDir = t.TempDir()
	return New(cfg, controller, store)
}

func result(rows int) *types.ConversionResult {
	table := &types.Table{Headers: []string{"Name", "Age"}}
	for i := 0; i < rows; i++ {
		table.Rows = append(table.Rows, types.RowRecord{
			"Name": types.StringValue(fmt.Sprintf("user%d", i)),
			"Age":  types.NumberValue(float64(20 + i)),
		})
	}
	return &types.ConversionResult{
		InputFile:     "/data/Sales.xlsx",
		Title:         "Sales",
		Table:         table,
		Document:      []byte("%PDF-1.4\n%%EOF\n"),
		ColumnsFound:  table.Headers,
		RowsProcessed: rows,
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// converting selects a file and starts a conversion without running it.
func converting(t *testing.T) (Model, uint64) {
	t.Helper()
	m := newTestModel(t)
	m, _ = m.selectFile("/data/Sales.xlsx")
	m, _ = m.convertFile()
	st := m.controller.State()
	require.Equal(t, session.PhaseConverting, st.Phase)
	return m, st.Gen
}

func TestUpdate_ConversionComplete(t *testing.T) {
	m, gen := converting(t)

	m, _ = update(t, m, conversionCompleteMsg{gen: gen, result: result(15)})

	st := m.controller.State()
	require.Equal(t, session.PhaseConverted, st.Phase)
	require.NotNil(t, st.Artifact)
	assert.Equal(t, "Sales.pdf", st.Artifact.Name)
	assert.Len(t, m.previewData.Rows, converter.PreviewRowLimit)
	assert.Equal(t, "Showing 10 of 15 rows", m.previewData.Notice())

	view := m.View()
	assert.Contains(t, view, "Showing 10 of 15 rows")
	assert.Contains(t, view, "Sales.pdf")
}

func TestUpdate_StaleCompletionIgnored(t *testing.T) {
	m, gen := converting(t)

	m, _ = update(t, m, conversionCompleteMsg{gen: gen - 1, result: result(3)})
	assert.Equal(t, session.PhaseConverting, m.controller.State().Phase)

	m, _ = update(t, m, progressMsg{gen: gen - 1, percent: 0.5})
	assert.Equal(t, session.PhaseConverting, m.controller.State().Phase)
}

func TestUpdate_Failure(t *testing.T) {
	m, gen := converting(t)
	decodeErr := &converter.DecodeError{Err: converter.ErrNoSheets}

	m, _ = update(t, m, conversionCompleteMsg{gen: gen, err: decodeErr})

	st := m.controller.State()
	require.Equal(t, session.PhaseFailed, st.Phase)
	assert.Nil(t, st.Artifact)
	assert.Contains(t, m.View(), "could not be read as an Excel spreadsheet")

	m, _ = update(t, m, key("r"))
	assert.Equal(t, session.PhaseConverting, m.controller.State().Phase)
}

func TestUpdate_ConvertIgnoredWhileConverting(t *testing.T) {
	m, gen := converting(t)

	m, cmd := update(t, m, key("c"))
	assert.Nil(t, cmd)
	assert.Equal(t, gen, m.controller.State().Gen)
}

func TestUpdate_Download(t *testing.T) {
	m, gen := converting(t)
	m, _ = update(t, m, conversionCompleteMsg{gen: gen, result: result(2)})

	m, cmd := update(t, m, key("d"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	require.NoError(t, m.actionErr)
	dest := filepath.Join(m.cfg.OutputDir, "Sales.pdf")
	assert.Equal(t, "Saved "+dest, m.status)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, result(2).Document, data)
}

func TestUpdate_ChooseAnotherFileReleasesArtifact(t *testing.T) {
	m, gen := converting(t)
	m, _ = update(t, m, conversionCompleteMsg{gen: gen, result: result(2)})
	a := m.controller.State().Artifact
	require.NotNil(t, a)

	m, _ = update(t, m, key("o"))

	assert.Equal(t, session.PhaseIdle, m.controller.State().Phase)
	assert.Empty(t, m.previewData.Headers)
	_, err := os.Stat(a.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestUpdate_NoColumns(t *testing.T) {
	m, gen := converting(t)
	empty := result(0)
	empty.Table = &types.Table{Headers: []string{}, Rows: []types.RowRecord{}}

	m, _ = update(t, m, conversionCompleteMsg{gen: gen, result: empty})

	assert.Contains(t, m.View(), "no tabular data")
}

func TestTruncatePath(t *testing.T) {
	short := "/data/Sales.xlsx"
	assert.Equal(t, short, truncatePath(short, 40))

	long := "/home/" + strings.Repeat("é", 60) + "/Données.xlsx"
	got := truncatePath(long, 30)
	assert.True(t, utf8.ValidString(got), "rune cut in half: %q", got)
	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "/Données.xlsx"))
	assert.LessOrEqual(t, lipgloss.Width(got), 30)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Canceled", context.Canceled, "cancelled"},
		{"Wrong extension", &converter.DecodeError{Err: converter.ErrUnsupportedFormat}, "Only Excel files"},
		{"Decode", &converter.DecodeError{Format: "xlsx", Err: errors.New("zip: not a valid zip file")}, "could not be read"},
		{"Empty sheet", &converter.EmptySheetError{Sheet: "Sheet1"}, `Sheet "Sheet1" has no data rows`},
		{"Render", &converter.RenderError{Err: converter.ErrNoColumns}, "PDF could not be generated"},
		{"Missing file", fmt.Errorf("read: %w", os.ErrNotExist), "could not be opened"},
		{"Other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, describeError(tt.err), tt.expected)
		})
	}
}
