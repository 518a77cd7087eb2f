package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/charmbracelet/log"
)

// AllowedExtensions are the file types offered by the picker and accepted by ReadFile.
var AllowedExtensions = []string{".xlsx", ".xls"}

type ExtractOptions struct {
	// AllColumns keeps every header-row column instead of only the columns
	// the first record has a value for.
	AllColumns bool
	// RejectEmpty turns a sheet without data rows into an EmptySheetError.
	RejectEmpty bool
}

type Options struct {
	Extract  ExtractOptions
	Document DocumentOptions
}

// Extract decodes a workbook and normalizes its first sheet. It either returns a
// complete table or an error, never both.
func Extract(ctx context.Context, data []byte, opts ExtractOptions) (*types.Table, error) {
	sheet, grid, err := decode(ctx, data)
	if err != nil {
		return nil, err
	}
	log.Debug("decoded workbook", "sheet", sheet, "rows", len(grid))

	table := normalize(grid, opts)
	if table.Len() == 0 && opts.RejectEmpty {
		return nil, &EmptySheetError{Sheet: sheet}
	}
	return table, nil
}

// Title derives the document title from an uploaded file name by dropping the
// directory and the spreadsheet extension.
func Title(filename string) string {
	base := filepath.Base(filename)
	if isAllowed(filepath.Ext(base)) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}

// DocumentName is the download file name for a title.
func DocumentName(title string) string {
	return title + ".pdf"
}

func isAllowed(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// ReadFile loads a spreadsheet from disk. Files without a spreadsheet extension
// are refused before reading.
func ReadFile(path string) ([]byte, error) {
	if ext := filepath.Ext(path); !isAllowed(ext) {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)}
	}
	return os.ReadFile(path)
}

// Convert runs the whole pipeline on an uploaded file: extract the table, then
// render it as a document titled after name.
func Convert(ctx context.Context, name string, data []byte, opts Options, progressChan chan<- float64) (*types.ConversionResult, error) {
	// Helper to report progress
	reportProgress := func(p float64) {
		if progressChan != nil {
			select {
			case progressChan <- p:
			default:
			}
		}
	}

	reportProgress(0.05)
	table, err := Extract(ctx, data, opts.Extract)
	if err != nil {
		return nil, err
	}
	reportProgress(0.4)

	title := Title(name)
	docOpts := opts.Document
	docOpts.Progress = func(p float64) {
		reportProgress(0.4 + 0.6*p)
	}
	doc, err := renderDocument(ctx, table, title, docOpts)
	if err != nil {
		return nil, err
	}
	reportProgress(1)

	log.Info("converted spreadsheet", "file", name, "columns", len(table.Headers), "rows", table.Len(), "bytes", len(doc))

	return &types.ConversionResult{
		InputFile:     name,
		Title:         title,
		Table:         table,
		Document:      doc,
		ColumnsFound:  table.Headers,
		RowsProcessed: table.Len(),
	}, nil
}
