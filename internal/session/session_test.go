package session

import (
	"context"
	"errors"
	"testing"

	"github.com/nconklindev/sheetpdf/internal/artifact"
	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	boom := errors.New("boom")
	result := &types.ConversionResult{Title: "sales"}

	tests := []struct {
		name     string
		actions  []Action
		expected Phase
	}{
		{"Starts idle", nil, PhaseIdle},
		{"Select", []Action{FileSelected{Path: "a.xlsx"}}, PhaseFileSelected},
		{"Convert without selection is ignored", []Action{ConversionStarted{}}, PhaseIdle},
		{"Convert", []Action{FileSelected{Path: "a.xlsx"}, ConversionStarted{}}, PhaseConverting},
		{"Succeed", []Action{FileSelected{Path: "a.xlsx"}, ConversionStarted{}, ConversionSucceeded{Gen: 2, Result: result}}, PhaseConverted},
		{"Fail", []Action{FileSelected{Path: "a.xlsx"}, ConversionStarted{}, ConversionFailed{Gen: 2, Err: boom}}, PhaseFailed},
		{"Stale result ignored", []Action{FileSelected{Path: "a.xlsx"}, ConversionStarted{}, ConversionSucceeded{Gen: 1, Result: result}}, PhaseConverting},
		{"Result outside conversion ignored", []Action{FileSelected{Path: "a.xlsx"}, ConversionSucceeded{Gen: 1, Result: result}}, PhaseFileSelected},
		{"Second start while converting ignored", []Action{FileSelected{Path: "a.xlsx"}, ConversionStarted{}, ConversionStarted{}, ConversionSucceeded{Gen: 2, Result: result}}, PhaseConverted},
		{"Retry after failure", []Action{FileSelected{Path: "a.xlsx"}, ConversionStarted{}, ConversionFailed{Gen: 2, Err: boom}, ConversionStarted{}}, PhaseConverting},
		{"New selection resets", []Action{FileSelected{Path: "a.xlsx"}, ConversionStarted{}, FileSelected{Path: "b.xlsx"}}, PhaseFileSelected},
		{"Clear", []Action{FileSelected{Path: "a.xlsx"}, Cleared{}}, PhaseIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s State
			for _, a := range tt.actions {
				s = Reduce(s, a)
			}
			assert.Equal(t, tt.expected, s.Phase, "got %s", s.Phase)
		})
	}
}

func TestReduce_FieldsValidTogether(t *testing.T) {
	result := &types.ConversionResult{Table: &types.Table{Headers: []string{"A"}}}

	s := Reduce(State{}, FileSelected{Path: "/data/q1.xlsx"})
	assert.Equal(t, "q1", s.Title)
	assert.Nil(t, s.Table())

	s = Reduce(s, ConversionStarted{})
	s = Reduce(s, ConversionSucceeded{Gen: s.Gen, Result: result})
	assert.Same(t, result.Table, s.Table())
	assert.NoError(t, s.Err)

	s = Reduce(s, ConversionStarted{})
	assert.Nil(t, s.Result, "re-converting drops the previous result")

	s = Reduce(s, ConversionFailed{Gen: s.Gen, Err: errors.New("bad")})
	assert.Nil(t, s.Result)
	assert.Nil(t, s.Artifact)
	assert.EqualError(t, s.Err, "bad")

	s = Reduce(s, FileSelected{Path: "next.xls"})
	assert.NoError(t, s.Err)
	assert.Equal(t, "next", s.Title)
}

func newController(t *testing.T) (*Controller, *artifact.Store) {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewController(store), store
}

func doc(title string) *types.ConversionResult {
	return &types.ConversionResult{
		Title:    title,
		Table:    &types.Table{Headers: []string{}, Rows: []types.RowRecord{}},
		Document: []byte("%PDF-1.3 " + title),
	}
}

func TestController_PublishesAndReleases(t *testing.T) {
	c, store := newController(t)

	c.Select("first.xlsx")
	_, gen, ok := c.Start(context.Background())
	require.True(t, ok)

	s, current := c.Finish(gen, doc("first"), nil)
	require.True(t, current)
	require.Equal(t, PhaseConverted, s.Phase)
	require.NotNil(t, s.Artifact)
	assert.Equal(t, "first.pdf", s.Artifact.Name)
	assert.FileExists(t, s.Artifact.Path)
	first := s.Artifact

	// Selecting a new file releases the previous document.
	c.Select("second.xlsx")
	assert.NoFileExists(t, first.Path)
	assert.Nil(t, store.Current())
}

func TestController_ReconvertReleasesPrevious(t *testing.T) {
	c, _ := newController(t)

	c.Select("a.xlsx")
	_, gen, _ := c.Start(context.Background())
	s, _ := c.Finish(gen, doc("a"), nil)
	first := s.Artifact

	_, gen, ok := c.Start(context.Background())
	require.True(t, ok)
	assert.NoFileExists(t, first.Path)

	s, _ = c.Finish(gen, doc("a"), nil)
	assert.FileExists(t, s.Artifact.Path)
}

func TestController_OneConversionInFlight(t *testing.T) {
	c, _ := newController(t)

	_, _, ok := c.Start(context.Background())
	assert.False(t, ok, "nothing selected")

	c.Select("a.xlsx")
	_, _, ok = c.Start(context.Background())
	require.True(t, ok)
	_, _, ok = c.Start(context.Background())
	assert.False(t, ok, "already converting")
}

func TestController_StaleResultDiscarded(t *testing.T) {
	c, store := newController(t)

	c.Select("old.xlsx")
	ctx, oldGen, _ := c.Start(context.Background())

	c.Select("new.xlsx")
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "re-selection cancels the in-flight conversion")

	s, current := c.Finish(oldGen, doc("old"), nil)
	assert.False(t, current)
	assert.Equal(t, PhaseFileSelected, s.Phase)
	assert.Nil(t, store.Current(), "stale result must not be published")
}

func TestController_Failure(t *testing.T) {
	c, store := newController(t)

	c.Select("broken.xlsx")
	_, gen, _ := c.Start(context.Background())

	s, current := c.Finish(gen, nil, errors.New("decode failed"))
	assert.True(t, current)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.EqualError(t, s.Err, "decode failed")
	assert.Nil(t, s.Artifact)
	assert.Nil(t, store.Current())

	_, _, ok := c.Start(context.Background())
	assert.True(t, ok, "failed conversions can be retried")
}

func TestController_Close(t *testing.T) {
	c, store := newController(t)

	c.Select("a.xlsx")
	_, gen, _ := c.Start(context.Background())
	s, _ := c.Finish(gen, doc("a"), nil)

	require.NoError(t, c.Close())
	assert.NoFileExists(t, s.Artifact.Path)
	assert.Nil(t, store.Current())
	assert.Equal(t, PhaseIdle, c.State().Phase)
}
