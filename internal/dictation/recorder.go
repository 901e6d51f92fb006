package dictation

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// State is the recorder's lifecycle state
type State int

const (
	StateIdle State = iota
	StateRecording
	StateError
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// ErrAlreadyRecording is returned by Start while a recording is active
var ErrAlreadyRecording = errors.New("dictation: already recording")

// Recorder feeds a Source into a Buffer. Stop, Abort, a source error and the
// source ending all leave it not recording.
type Recorder struct {
	source  Source
	buf     *Buffer
	onFinal func(*Buffer)
	logger  *zap.Logger

	mu      sync.Mutex
	state   State
	message string
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRecorder creates a recorder writing into buf. onFinal, if set, runs
// after each completed segment is committed.
func NewRecorder(source Source, buf *Buffer, onFinal func(*Buffer), logger *zap.Logger) *Recorder {
	return &Recorder{
		source:  source,
		buf:     buf,
		onFinal: onFinal,
		logger:  logger,
	}
}

// State returns the current state
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Recording reports whether a recording is active
func (r *Recorder) Recording() bool {
	return r.State() == StateRecording
}

// ErrorMessage is the user-facing text of the last source error
func (r *Recorder) ErrorMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}

// Start begins a recording
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return ErrAlreadyRecording
	}

	ctx, cancel := context.WithCancel(ctx)
	events, err := r.source.Start(ctx)
	if err != nil {
		cancel()
		r.state = StateError
		r.message = err.Error()
		return err
	}

	r.state = StateRecording
	r.message = ""
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx, events, r.done)
	return nil
}

// Done is closed when the current recording ends. It is nil before the
// first Start.
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Stop ends the recording, keeping any interim text
func (r *Recorder) Stop() {
	if r.halt() {
		r.buf.CommitInterim()
	}
}

// Abort ends the recording, discarding any interim text
func (r *Recorder) Abort() {
	if r.halt() {
		r.buf.SetInterim("")
	}
}

// halt cancels an active recording and waits for it to drain
func (r *Recorder) halt() bool {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return false
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done

	r.mu.Lock()
	if r.state == StateRecording {
		r.state = StateIdle
	}
	r.mu.Unlock()
	return true
}

func (r *Recorder) run(ctx context.Context, events <-chan Event, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if ctx.Err() != nil {
				return
			}
			if !ok {
				r.finish(StateIdle, "")
				return
			}
			switch ev.Kind {
			case EventStart:
				r.logger.Debug("Dictation started")
			case EventInterim:
				r.buf.SetInterim(ev.Text)
			case EventFinal:
				r.buf.Commit(ev.Text)
				if r.onFinal != nil {
					r.onFinal(r.buf)
				}
			case EventError:
				r.buf.SetInterim("")
				r.logger.Warn("Dictation failed", zap.String("code", string(ev.Code)))
				r.finish(StateError, ev.Code.Message())
				return
			case EventEnd:
				r.buf.CommitInterim()
				r.finish(StateIdle, "")
				return
			}
		}
	}
}

func (r *Recorder) finish(state State, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.message = message
	r.cancel()
}
