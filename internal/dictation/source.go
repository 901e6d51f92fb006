// Package dictation turns a stream of partial and final transcription
// results into text in an input buffer the user can also edit directly.
package dictation

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// EventKind identifies a transcription event
type EventKind int

const (
	EventStart EventKind = iota
	EventInterim
	EventFinal
	EventError
	EventEnd
)

// ErrorCode is the failure reported by a source
type ErrorCode string

const (
	ErrNoSpeech     ErrorCode = "no-speech"
	ErrAudioCapture ErrorCode = "audio-capture"
	ErrNotAllowed   ErrorCode = "not-allowed"
)

// Message is the user-facing text for the code
func (c ErrorCode) Message() string {
	switch c {
	case ErrNoSpeech:
		return "No speech was detected. Please try again."
	case ErrAudioCapture:
		return "Audio capture failed. Ensure your microphone is working."
	case ErrNotAllowed:
		return "Microphone access denied. Please enable microphone permissions in your browser settings."
	default:
		return "Error: " + string(c)
	}
}

// Event is one item from a source. Interim carries the unfinished segment,
// Final a completed one.
type Event struct {
	Kind EventKind
	Text string
	Code ErrorCode
}

// Source produces transcription events until ctx is cancelled or it ends.
// The channel is closed when the source stops.
type Source interface {
	Start(ctx context.Context) (<-chan Event, error)
}

// LineSource treats each line read from r as a final segment. It lets a
// terminal stand in for a speech engine.
type LineSource struct {
	r io.Reader
}

// NewLineSource creates a source over r
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r}
}

// Start begins reading lines. EOF yields EventEnd; a read failure yields
// EventError with ErrAudioCapture.
func (s *LineSource) Start(ctx context.Context) (<-chan Event, error) {
	events := make(chan Event)

	go func() {
		defer close(events)

		send := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(Event{Kind: EventStart}) {
			return
		}

		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if !send(Event{Kind: EventFinal, Text: line}) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send(Event{Kind: EventError, Code: ErrAudioCapture})
			return
		}
		send(Event{Kind: EventEnd})
	}()

	return events, nil
}
