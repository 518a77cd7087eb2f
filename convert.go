package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nconklindev/sheetpdf/internal/artifact"
	"github.com/nconklindev/sheetpdf/internal/converter"
	"github.com/nconklindev/sheetpdf/internal/logging"
	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var showPreview bool

	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a spreadsheet to PDF without the interactive UI",
		Long: `convert writes <title>.pdf for FILE, where the title is the file name
without its .xlsx or .xls extension, and prints a preview of the table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], showPreview)
		},
	}
	cmd.Flags().BoolVar(&showPreview, "preview", true, "Print the table preview")

	return cmd
}

func runConvert(cmd *cobra.Command, path string, showPreview bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	closer, err := logging.Setup(cfg.LogFile, cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	data, err := converter.ReadFile(path)
	if err != nil {
		return err
	}
	result, err := converter.Convert(ctx, filepath.Base(path), data, cfg.ConverterOptions(), nil)
	if err != nil {
		return err
	}

	dir := cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	dest := filepath.Join(dir, converter.DocumentName(result.Title))
	if err := artifact.WriteFile(dest, result.Document); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showPreview {
		fmt.Fprintln(out, renderPreview(converter.RenderPreview(result.Table, cfg.PreviewRows)))
	}
	fmt.Fprintf(out, "Wrote %s (%s, %d columns, %s rows)\n",
		dest, humanize.Bytes(uint64(len(result.Document))), len(result.ColumnsFound), humanize.Comma(int64(result.RowsProcessed)))

	return nil
}

var (
	previewHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	previewCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderPreview draws p as a plain terminal table followed by the truncation notice.
func renderPreview(p types.Preview) string {
	if len(p.Headers) == 0 {
		return "No tabular data"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(p.Headers...).
		Rows(p.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return previewHeaderStyle
			}
			return previewCellStyle
		})

	s := t.String()
	if notice := p.Notice(); notice != "" {
		s += "\n" + notice
	}
	return s
}
