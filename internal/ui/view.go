package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetpdf/internal/converter"
	"github.com/nconklindev/sheetpdf/internal/session"
	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

const (
	maxColumnWidth = 24
	// previewHeight caps the visible table rows; the rest scroll.
	previewHeight = 10
)

func (m Model) View() string {
	st := m.controller.State()
	switch st.Phase {
	case session.PhaseIdle:
		return m.viewFilePicker()
	case session.PhaseFileSelected:
		return m.viewSelected(st)
	case session.PhaseConverting:
		return m.viewProcessing(st)
	case session.PhaseConverted:
		return m.viewComplete(st)
	case session.PhaseFailed:
		return m.viewError(st)
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	title := TitleStyle.Render("📄 sheetpdf - Excel to PDF Converter")

	authorSpan := SubtitleStyle.Render("by Nick Conklin • ")
	githubSpan := LinkStyle.Render("https://github.com/nconklindev/sheetpdf")
	byLine := lipgloss.JoinHorizontal(lipgloss.Top, authorSpan, githubSpan)

	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, byLine))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select an Excel file (.xlsx or .xls) to convert to PDF"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	if m.actionErr != nil {
		s.WriteString(ErrorStyle.Render(m.actionErr.Error()))
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewSelected(st session.State) string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📄 Ready to Convert"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("File:     %s\n", m.truncatePath(st.Path)))
	s.WriteString(fmt.Sprintf("Document: %s\n", converter.DocumentName(st.Title)))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("enter: convert to PDF • o: choose another file • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing(st session.State) string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📄 Converting..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Reading %s and building the PDF...", filepath.Base(st.Path)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("esc: cancel • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete(st session.State) string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Conversion Complete!"))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("Input:    %s\n", m.truncatePath(st.Path)))
	if a := st.Artifact; a != nil {
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Document: %s (%s)", a.Name, humanize.Bytes(uint64(a.Size)))))
		s.WriteString("\n")
	}
	if r := st.Result; r != nil {
		s.WriteString(fmt.Sprintf("Columns: %d • Rows: %s\n", len(r.ColumnsFound), humanize.Comma(int64(r.RowsProcessed))))
	}
	s.WriteString("\n")

	if len(m.previewData.Headers) == 0 {
		s.WriteString(NoticeStyle.Render("The first sheet has no tabular data to preview."))
	} else {
		s.WriteString(m.preview.View())
		if notice := m.previewData.Notice(); notice != "" {
			s.WriteString("\n")
			s.WriteString(NoticeStyle.Render(notice))
		}
	}
	s.WriteString("\n")

	if m.actionErr != nil {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render(m.actionErr.Error()))
	} else if m.status != "" {
		s.WriteString("\n")
		s.WriteString(SuccessStyle.Render(m.status))
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: scroll • p: preview PDF • d: download PDF • r: convert again • o: choose another file • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError(st session.State) string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(describeError(st.Err))
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("r: try again • o: choose another file • q: quit"))

	return BoxStyle.Render(s.String())
}

// truncatePath keeps the tail of long paths so they fit the box.
func (m Model) truncatePath(path string) string {
	return truncatePath(path, m.width-20) // Leave room for padding and borders
}

func truncatePath(path string, maxWidth int) string {
	if maxWidth < 30 {
		maxWidth = 30
	}
	if w := ansi.StringWidth(path); w > maxWidth {
		return ansi.TruncateLeft(path, w-maxWidth+3, "...")
	}
	return path
}

func newPreviewTable(p types.Preview, width int) table.Model {
	columns := make([]table.Column, len(p.Headers))
	for i, h := range p.Headers {
		w := lipgloss.Width(h)
		for _, row := range p.Rows {
			w = max(w, lipgloss.Width(row[i]))
		}
		columns[i] = table.Column{Title: h, Width: min(max(w, 3), maxColumnWidth)}
	}

	rows := make([]table.Row, len(p.Rows))
	for i, row := range p.Rows {
		rows[i] = table.Row(row)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(max(len(rows), 1), previewHeight)+1),
	)
	if width > 0 {
		t.SetWidth(max(width-8, 20))
	}

	styles := table.DefaultStyles()
	styles.Header = TableHeaderStyle
	styles.Cell = TableCellStyle
	styles.Selected = SelectedStyle
	t.SetStyles(styles)

	return t
}

// describeError turns a pipeline error into a message for the failure screen.
func describeError(err error) string {
	var (
		decodeErr *converter.DecodeError
		emptyErr  *converter.EmptySheetError
		renderErr *converter.RenderError
	)

	switch {
	case err == nil:
		return "Unknown error"
	case errors.Is(err, context.Canceled):
		return "Conversion cancelled."
	case errors.Is(err, converter.ErrUnsupportedFormat):
		return "Only Excel files (.xlsx or .xls) can be converted."
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("The file could not be read as an Excel spreadsheet.\n\n%s", NoticeStyle.Render(decodeErr.Error()))
	case errors.As(err, &emptyErr):
		return fmt.Sprintf("Sheet %q has no data rows to convert.", emptyErr.Sheet)
	case errors.As(err, &renderErr):
		return fmt.Sprintf("The PDF could not be generated.\n\n%s", NoticeStyle.Render(renderErr.Error()))
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return fmt.Sprintf("The file could not be opened.\n\n%s", NoticeStyle.Render(err.Error()))
	}
	return err.Error()
}
