// Package stt turns live microphone audio into transcript events.
//
// Capture is the controller the rest of the gateway talks to. It owns the
// Idle/Listening/Error lifecycle and converts the recognizer's cumulative
// result lists into incremental RecognitionEvents. The recognizer itself is
// injected, so tests drive Capture with the mock package and production uses
// DeepgramRecognizer.
package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lexiqai/reader-gateway/internal/locale"
	"github.com/lexiqai/reader-gateway/internal/observability"
	"github.com/lexiqai/reader-gateway/internal/speech"
)

// State is the capture lifecycle state.
type State int

const (
	StateIdle State = iota
	StateListening
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

var (
	// ErrIllegalTransition is returned when a state change is not in the table.
	ErrIllegalTransition = errors.New("illegal capture state transition")

	// ErrNotListening is returned by SendAudio outside a live session.
	ErrNotListening = errors.New("capture is not listening")
)

var transitions = map[State][]State{
	StateIdle:      {StateListening},
	StateListening: {StateIdle, StateError},
	StateError:     {StateIdle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CaptureOption configures a Capture.
type CaptureOption func(*Capture)

// WithResolver sets the locale resolver used for language codes.
func WithResolver(r locale.Resolver) CaptureOption {
	return func(c *Capture) {
		c.resolver = r
	}
}

// WithCaptureLogger sets the logger.
func WithCaptureLogger(l zerolog.Logger) CaptureOption {
	return func(c *Capture) {
		c.logger = l
	}
}

// Capture controls one user's speech capture. It is safe for concurrent use.
type Capture struct {
	rec      Recognizer
	resolver locale.Resolver
	logger   zerolog.Logger

	mu         sync.Mutex
	state      State
	session    RecognitionSession
	listener   Listener
	generation uint64
	lastIndex  int
}

// NewCapture creates an idle controller. rec may be nil, in which case
// capture reports itself unsupported.
func NewCapture(rec Recognizer, opts ...CaptureOption) *Capture {
	c := &Capture{
		rec:      rec,
		resolver: locale.NewResolver(locale.DefaultLocale),
		logger:   observability.WithComponent("capture"),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transition moves to the next state. Callers hold c.mu.
func (c *Capture) transition(to State) error {
	if !canTransition(c.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.state, to)
	}
	c.logger.Debug().Str("from", c.state.String()).Str("to", to.String()).Msg("Capture state change")
	c.state = to
	return nil
}

// IsSupported reports whether a recognizer is present and usable.
func (c *Capture) IsSupported() bool {
	return c.rec != nil && c.rec.Supported()
}

// IsListening reports whether a session is live.
func (c *Capture) IsListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateListening
}

// State returns the current state.
func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a continuous session in the language for localeCode. Failures
// are reported through l.OnError; the controller stays Idle.
func (c *Capture) Start(ctx context.Context, localeCode string, l Listener) {
	if !c.IsSupported() {
		observability.RecordCaptureSession("unsupported")
		observability.RecordCaptureError(speech.KindUnsupported.String())
		l.OnError(speech.NewError(speech.KindUnsupported, errors.New("speech recognition is not available")))
		return
	}

	c.mu.Lock()
	if c.state == StateListening {
		c.mu.Unlock()
		c.logger.Warn().Msg("Capture already listening, ignoring start")
		return
	}
	if err := c.transition(StateListening); err != nil {
		c.mu.Unlock()
		c.logger.Error().Err(err).Msg("Capture start rejected")
		l.OnError(speech.Normalize(err))
		return
	}
	c.generation++
	gen := c.generation
	c.listener = l
	c.lastIndex = 0
	c.session = nil
	loc := c.resolver.Resolve(localeCode)
	c.mu.Unlock()

	opts := RecognitionOptions{Locale: loc, Continuous: true, InterimResults: true}
	sess, err := c.rec.Start(ctx, opts, &sessionHandler{c: c, gen: gen})

	c.mu.Lock()
	if gen != c.generation {
		// Stopped or failed while the platform was starting.
		c.mu.Unlock()
		if sess != nil {
			sess.Abort()
		}
		return
	}
	if err != nil {
		_ = c.transition(StateIdle)
		c.generation++
		c.listener = nil
		c.mu.Unlock()

		nerr := speech.Normalize(fmt.Errorf("start recognition: %w", err))
		c.logger.Error().Err(err).Str("locale", loc).Msg("Failed to start recognition")
		observability.RecordCaptureSession("error")
		observability.RecordCaptureError(nerr.Kind.String())
		l.OnError(nerr)
		return
	}
	c.session = sess
	c.mu.Unlock()

	observability.RecordCaptureSession("started")
	c.logger.Info().Str("locale", loc).Msg("Capture started")
}

// Stop requests the session to end. The listener's OnEnd fires once the
// platform confirms. Stop while Idle is a no-op.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return nil
	}
	sess := c.session
	gen := c.generation
	if sess == nil {
		// Platform start still in flight; end here and let Start abort it.
		c.generation++
		_ = c.transition(StateIdle)
		l := c.listener
		c.listener = nil
		c.mu.Unlock()

		observability.RecordCaptureSession("ended")
		if l != nil {
			l.OnEnd()
		}
		return nil
	}
	c.mu.Unlock()

	if err := sess.Stop(); err != nil {
		c.fail(gen, fmt.Errorf("stop recognition: %w", err))
		return err
	}
	return nil
}

// Interrupt reports a failure from outside the recognizer, such as the audio
// source losing microphone permission. It is handled like a platform error.
func (c *Capture) Interrupt(err error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.fail(gen, err)
}

// SendAudio forwards a PCM chunk to the live session.
func (c *Capture) SendAudio(chunk []byte) error {
	c.mu.Lock()
	sess := c.session
	listening := c.state == StateListening
	c.mu.Unlock()

	if !listening || sess == nil {
		return ErrNotListening
	}
	return sess.SendAudio(chunk)
}

func (c *Capture) handleResults(gen uint64, batch ResultBatch) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateListening {
		c.mu.Unlock()
		return
	}

	from := batch.ResultIndex
	if c.lastIndex > from {
		from = c.lastIndex
	}
	if from < 0 {
		from = 0
	}
	if from >= len(batch.Results) {
		c.mu.Unlock()
		return
	}

	var final, interim string
	for i := from; i < len(batch.Results); i++ {
		res := batch.Results[i]
		if len(res.Alternatives) == 0 {
			continue
		}
		transcript := res.Alternatives[0].Transcript
		if res.IsFinal {
			final += transcript + " "
			c.lastIndex = i + 1
		} else {
			interim += transcript
		}
	}
	l := c.listener
	c.mu.Unlock()

	event := newRecognitionEvent(final, interim)
	observability.RecordRecognitionEvent(event.IsFinal)
	if l != nil {
		l.OnResult(event)
	}
}

func newRecognitionEvent(final, interim string) RecognitionEvent {
	final = strings.TrimSpace(final)
	return RecognitionEvent{
		FinalTranscript:   final,
		InterimTranscript: interim,
		IsFinal:           len(final) > 0,
	}
}

// fail moves Listening through Error back to Idle, aborts the session and
// reports the normalised error.
func (c *Capture) fail(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateListening {
		c.mu.Unlock()
		return
	}
	_ = c.transition(StateError)
	sess := c.session
	l := c.listener
	c.session = nil
	c.listener = nil
	c.generation++
	_ = c.transition(StateIdle)
	c.mu.Unlock()

	if sess != nil {
		sess.Abort()
	}

	nerr := speech.Normalize(err)
	c.logger.Warn().Err(err).Str("kind", nerr.Kind.String()).Msg("Capture failed")
	observability.RecordCaptureSession("error")
	observability.RecordCaptureError(nerr.Kind.String())
	if l != nil {
		l.OnError(nerr)
	}
}

func (c *Capture) handleEnd(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateListening {
		c.mu.Unlock()
		return
	}
	_ = c.transition(StateIdle)
	l := c.listener
	c.session = nil
	c.listener = nil
	c.generation++
	c.mu.Unlock()

	observability.RecordCaptureSession("ended")
	c.logger.Info().Msg("Capture ended")
	if l != nil {
		l.OnEnd()
	}
}

// sessionHandler ties platform callbacks to the generation that started them.
type sessionHandler struct {
	c   *Capture
	gen uint64
}

func (h *sessionHandler) OnResults(batch ResultBatch) { h.c.handleResults(h.gen, batch) }
func (h *sessionHandler) OnError(err error)           { h.c.fail(h.gen, err) }
func (h *sessionHandler) OnEnd()                      { h.c.handleEnd(h.gen) }
