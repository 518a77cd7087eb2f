package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/nconklindev/sheetpdf/internal/artifact"
	"github.com/nconklindev/sheetpdf/internal/converter"
	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/charmbracelet/log"
)

type Controller struct {
	mu     sync.Mutex
	state  State
	store  *artifact.Store
	cancel context.CancelFunc
}

func NewController(store *artifact.Store) *Controller {
	return &Controller{store: store}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies a and releases the previous artifact if the new state no
// longer references it.
func (c *Controller) Dispatch(a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatchLocked(a)
}

func (c *Controller) dispatchLocked(a Action) State {
	prev := c.state
	next := Reduce(prev, a)

	if prev.Gen != next.Gen {
		c.cancelLocked()
	}
	if prev.Artifact != nil && (next.Artifact == nil || next.Artifact.ID != prev.Artifact.ID) {
		if err := c.store.Release(prev.Artifact); err != nil {
			log.Warn("release artifact", "id", prev.Artifact.ID, "err", err)
		}
	}
	if prev.Phase != next.Phase {
		log.Debug("session transition", "from", prev.Phase, "to", next.Phase, "gen", next.Gen)
	}

	c.state = next
	return next
}

func (c *Controller) cancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Select starts a new cycle for path. Any in-flight conversion is cancelled and
// its result will be discarded.
func (c *Controller) Select(path string) State {
	return c.Dispatch(FileSelected{Path: path})
}

// Clear drops the current selection.
func (c *Controller) Clear() State {
	return c.Dispatch(Cleared{})
}

// Start begins a conversion of the selected file. It returns the context the
// conversion must run under and its generation; ok is false while a conversion
// is already in flight or nothing is selected.
func (c *Controller) Start(parent context.Context) (ctx context.Context, gen uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.CanConvert() {
		return nil, 0, false
	}
	next := c.dispatchLocked(ConversionStarted{})

	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return ctx, next.Gen, true
}

// Finish records the outcome of the conversion started as gen. On success the
// document is published to the store. Results from a stale generation are
// dropped and Finish reports false.
func (c *Controller) Finish(gen uint64, result *types.ConversionResult, err error) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseConverting || c.state.Gen != gen {
		log.Debug("discarding stale conversion", "gen", gen, "current", c.state.Gen)
		return c.state, false
	}
	c.cancelLocked()

	if err == nil && result == nil {
		err = fmt.Errorf("conversion produced no result")
	}
	if err != nil {
		log.Error("conversion failed", "path", c.state.Path, "err", err)
		return c.dispatchLocked(ConversionFailed{Gen: gen, Err: err}), true
	}

	a, err := c.store.Publish(converter.DocumentName(result.Title), result.Document)
	if err != nil {
		log.Error("publish document", "path", c.state.Path, "err", err)
		return c.dispatchLocked(ConversionFailed{Gen: gen, Err: err}), true
	}
	return c.dispatchLocked(ConversionSucceeded{Gen: gen, Result: result, Artifact: a}), true
}

// Close cancels any in-flight conversion and releases the live artifact.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	a := c.state.Artifact
	c.state = State{Gen: c.state.Gen + 1}
	return c.store.Release(a)
}
