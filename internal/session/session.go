// Package session owns the per-file conversion state. State only changes through
// Reduce, and Controller pairs it with the artifact store so a document that the
// state no longer references is always released.
package session

import (
	"github.com/nconklindev/sheetpdf/internal/artifact"
	"github.com/nconklindev/sheetpdf/internal/converter"
	"github.com/nconklindev/sheetpdf/internal/types"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFileSelected
	PhaseConverting
	PhaseConverted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFileSelected:
		return "file selected"
	case PhaseConverting:
		return "converting"
	case PhaseConverted:
		return "converted"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is one selection cycle. Result and Artifact are set only in
// PhaseConverted, Err only in PhaseFailed.
type State struct {
	Phase    Phase
	Gen      uint64
	Path     string
	Title    string
	Result   *types.ConversionResult
	Artifact *artifact.Artifact
	Err      error
}

// Table returns the converted table, or nil before a successful conversion.
func (s State) Table() *types.Table {
	if s.Result == nil {
		return nil
	}
	return s.Result.Table
}

// CanConvert reports whether a ConversionStarted action would be accepted.
func (s State) CanConvert() bool {
	switch s.Phase {
	case PhaseFileSelected, PhaseConverted, PhaseFailed:
		return true
	}
	return false
}

type Action interface {
	action()
}

// FileSelected starts a new cycle for Path from any phase.
type FileSelected struct {
	Path string
}

// ConversionStarted moves a selected file into PhaseConverting.
type ConversionStarted struct{}

// ConversionSucceeded carries the result of the conversion started as Gen.
type ConversionSucceeded struct {
	Gen      uint64
	Result   *types.ConversionResult
	Artifact *artifact.Artifact
}

// ConversionFailed carries the error of the conversion started as Gen.
type ConversionFailed struct {
	Gen uint64
	Err error
}

// Cleared drops the selection and returns to PhaseIdle.
type Cleared struct{}

func (FileSelected) action()        {}
func (ConversionStarted) action()   {}
func (ConversionSucceeded) action() {}
func (ConversionFailed) action()    {}
func (Cleared) action()             {}

// Reduce applies a to s. Actions that are not valid in the current phase, and
// results from an earlier generation, leave s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case FileSelected:
		return State{
			Phase: PhaseFileSelected,
			Gen:   s.Gen + 1,
			Path:  a.Path,
			Title: converter.Title(a.Path),
		}

	case ConversionStarted:
		if !s.CanConvert() {
			return s
		}
		return State{
			Phase: PhaseConverting,
			Gen:   s.Gen + 1,
			Path:  s.Path,
			Title: s.Title,
		}

	case ConversionSucceeded:
		if s.Phase != PhaseConverting || a.Gen != s.Gen {
			return s
		}
		s.Phase = PhaseConverted
		s.Result = a.Result
		s.Artifact = a.Artifact
		return s

	case ConversionFailed:
		if s.Phase != PhaseConverting || a.Gen != s.Gen {
			return s
		}
		s.Phase = PhaseFailed
		s.Err = a.Err
		return s

	case Cleared:
		return State{Phase: PhaseIdle, Gen: s.Gen + 1}
	}

	return s
}
