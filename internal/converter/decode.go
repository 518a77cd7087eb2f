package converter

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const (
	formatXLSX = "xlsx"
	formatXLS  = "xls"
)

// cancelCheckRows is how many rows are decoded between context checks.
const cancelCheckRows = 256

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// sniffFormat identifies the container from its leading bytes. File names are
// not trusted: a renamed text file must still fail as a decode error.
func sniffFormat(data []byte) (string, error) {
	switch {
	case len(data) == 0:
		return "", ErrEmptyInput
	case bytes.HasPrefix(data, zipMagic):
		return formatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return formatXLS, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// decode returns the first sheet's name and its cell grid. Rows and columns are
// positional: grid[r][c] is the cell at row r+1, column c+1.
func decode(ctx context.Context, data []byte) (string, [][]types.Value, error) {
	format, err := sniffFormat(data)
	if err != nil {
		return "", nil, &DecodeError{Err: err}
	}

	var (
		sheet string
		grid  [][]types.Value
	)
	switch format {
	case formatXLSX:
		sheet, grid, err = decodeXLSX(ctx, data)
	case formatXLS:
		sheet, grid, err = decodeXLS(ctx, data)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", nil, ctxErr
		}
		return "", nil, &DecodeError{Format: format, Err: err}
	}
	return sheet, grid, nil
}

func decodeXLSX(ctx context.Context, data []byte) (string, [][]types.Value, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return "", nil, ErrNoSheets
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, err
	}
	formatted, err := f.GetRows(sheet)
	if err != nil {
		return "", nil, err
	}

	grid := make([][]types.Value, len(raw))
	for r, row := range raw {
		if r%cancelCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return "", nil, err
			}
		}

		cells := make([]types.Value, len(row))
		for c, rawValue := range row {
			if rawValue == "" {
				continue
			}
			text := rawValue
			if r < len(formatted) && c < len(formatted[r]) {
				text = formatted[r][c]
			}

			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return "", nil, err
			}
			cellType, err := f.GetCellType(sheet, cellName)
			if err != nil {
				return "", nil, err
			}
			cells[c] = xlsxValue(cellType, rawValue, text)
		}
		grid[r] = cells
	}

	return sheet, grid, nil
}

// xlsxValue types a cell from its stored type, raw value and formatted text.
// Numbers keep the raw unformatted value; everything else keeps the text.
func xlsxValue(cellType excelize.CellType, raw, text string) types.Value {
	switch cellType {
	case excelize.CellTypeBool:
		return types.BoolValue(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, ok := parseNumber(raw); ok {
			return types.NumberValue(n)
		}
	}
	return types.StringValue(text)
}

func decodeXLS(ctx context.Context, data []byte) (sheet string, grid [][]types.Value, err error) {
	// The BIFF reader panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			sheet, grid, err = "", nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, err
	}
	if wb.NumSheets() == 0 {
		return "", nil, ErrNoSheets
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return "", nil, ErrNoSheets
	}

	for r := 0; r <= int(ws.MaxRow); r++ {
		if r%cancelCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return "", nil, err
			}
		}

		row := sheetRow(ws, r)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		last := row.LastCol()
		if last < 0 {
			last = 0
		}
		cells := make([]types.Value, last)
		for c := row.FirstCol(); c < last; c++ {
			if c < 0 {
				continue
			}
			cells[c] = inferValue(row.Col(c))
		}
		grid = append(grid, cells)
	}

	return ws.Name, grid, nil
}

// sheetRow returns row i, or nil for a row the sheet has no records for.
// WorkSheet.Row dereferences the missing entry instead of returning nil.
func sheetRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// inferValue types text that carries no stored type: numeric text becomes a number.
func inferValue(s string) types.Value {
	if s == "" {
		return types.Value{}
	}
	if n, ok := parseNumber(strings.TrimSpace(s)); ok {
		return types.NumberValue(n)
	}
	return types.StringValue(s)
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
