package runner

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ErrInputClosed is the cancellation cause when the player's input stream ends.
var ErrInputClosed = errors.New("input closed")

// raceWindow is how long an input EOF waits for a pending interrupt.
const raceWindow = 100 * time.Millisecond

// SignalManager derives the context of an interactive session: it is
// cancelled by SIGINT/SIGTERM, by its parent, or by the input closing.
type SignalManager struct {
	signals context.Context
	stop    context.CancelFunc

	ctx    context.Context
	cancel context.CancelCauseFunc
}

// NewSignalManager starts listening for signals on top of parent.
func NewSignalManager(parent context.Context) *SignalManager {
	sm := &SignalManager{}
	sm.signals, sm.stop = signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	sm.ctx, sm.cancel = context.WithCancelCause(sm.signals)
	return sm
}

// Context returns the session context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether a signal (or the parent) ended the session.
func (sm *SignalManager) Interrupted() bool {
	return sm.signals.Err() != nil
}

// CloseOn cancels the session context with ErrInputClosed once closed fires.
func (sm *SignalManager) CloseOn(closed <-chan struct{}) {
	go func() {
		select {
		case <-closed:
			sm.CheckRace()
			sm.cancel(ErrInputClosed)
		case <-sm.ctx.Done():
		}
	}()
}

// Stop releases the signal listener and cancels the context.
func (sm *SignalManager) Stop() {
	sm.cancel(context.Canceled)
	sm.stop()
}

// CheckRace waits briefly for a signal that may follow an input error.
// Some terminals deliver EOF on stdin slightly before the interrupt.
func (sm *SignalManager) CheckRace() {
	if sm.signals.Err() != nil {
		return
	}
	select {
	case <-sm.signals.Done():
	case <-time.After(raceWindow):
	}
}
