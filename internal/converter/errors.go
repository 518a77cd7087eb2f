package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates a zero-length upload.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnsupportedFormat indicates bytes that are neither xlsx nor xls.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrNoSheets indicates a workbook without worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")
	// ErrEmptySheet indicates a first sheet without data rows.
	ErrEmptySheet = errors.New("sheet has no data rows")
	// ErrNoColumns indicates rows that cannot be laid out because there are no headers.
	ErrNoColumns = errors.New("table has rows but no columns")
)

// DecodeError reports input bytes that could not be read as a spreadsheet.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode spreadsheet: %v", e.Err)
	}
	return fmt.Sprintf("decode %s spreadsheet: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EmptySheetError is returned when empty sheets are rejected.
type EmptySheetError struct {
	Sheet string
}

func (e *EmptySheetError) Error() string {
	return fmt.Sprintf("sheet %q: %v", e.Sheet, ErrEmptySheet)
}

func (e *EmptySheetError) Unwrap() error {
	return ErrEmptySheet
}

// RenderError reports a failure while producing the output document.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render document: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
