// Package tts reads annotated sections aloud.
//
// Playback is the per-user controller: one section speaks at a time, and
// toggling the same section pauses and resumes it. Synthesis is injected as a
// Synthesizer; CartesiaSynthesizer is the production implementation.
package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lexiqai/reader-gateway/internal/locale"
	"github.com/lexiqai/reader-gateway/internal/observability"
	"github.com/lexiqai/reader-gateway/internal/speech"
)

// PlaybackState is the playback lifecycle state.
type PlaybackState int

const (
	PlaybackIdle PlaybackState = iota
	PlaybackSpeaking
	PlaybackPaused
)

// String returns the state name.
func (s PlaybackState) String() string {
	switch s {
	case PlaybackIdle:
		return "idle"
	case PlaybackSpeaking:
		return "speaking"
	case PlaybackPaused:
		return "paused"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ErrIllegalTransition is returned when a state change is not in the table.
var ErrIllegalTransition = errors.New("illegal playback state transition")

var transitions = map[PlaybackState][]PlaybackState{
	PlaybackIdle:     {PlaybackSpeaking},
	PlaybackSpeaking: {PlaybackPaused, PlaybackIdle},
	PlaybackPaused:   {PlaybackSpeaking, PlaybackIdle},
}

func canTransition(from, to PlaybackState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PlaybackOption configures a Playback.
type PlaybackOption func(*Playback)

// WithPlaybackResolver sets the locale resolver.
func WithPlaybackResolver(r locale.Resolver) PlaybackOption {
	return func(p *Playback) {
		p.resolver = r
	}
}

// WithPlaybackLogger sets the logger.
func WithPlaybackLogger(l zerolog.Logger) PlaybackOption {
	return func(p *Playback) {
		p.logger = l
	}
}

// WithPlaybackContext sets the context handed to the synthesizer.
func WithPlaybackContext(ctx context.Context) PlaybackOption {
	return func(p *Playback) {
		p.ctx = ctx
	}
}

// WithErrorHook is called when an utterance fails after it started.
func WithErrorHook(fn func(sectionID string, err error)) PlaybackOption {
	return func(p *Playback) {
		p.onError = fn
	}
}

// Playback controls read-aloud for one user. It is safe for concurrent use.
type Playback struct {
	synth    Synthesizer
	resolver locale.Resolver
	logger   zerolog.Logger
	ctx      context.Context
	onError  func(string, error)

	mu           sync.Mutex
	state        PlaybackState
	section      string
	onNaturalEnd func()
	generation   uint64
}

// NewPlayback creates an idle controller. synth may be nil, in which case
// every Toggle reports synthesis unavailable.
func NewPlayback(synth Synthesizer, opts ...PlaybackOption) *Playback {
	p := &Playback{
		synth:    synth,
		resolver: locale.NewResolver(locale.DefaultLocale),
		logger:   observability.WithComponent("playback"),
		ctx:      context.Background(),
		state:    PlaybackIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// transition moves to the next state. Callers hold p.mu.
func (p *Playback) transition(to PlaybackState) error {
	if !canTransition(p.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, p.state, to)
	}
	p.state = to
	observability.RecordPlaybackTransition(to.String())
	return nil
}

// reset returns to Idle and forgets the current section. Callers hold p.mu.
func (p *Playback) reset() {
	if p.state != PlaybackIdle {
		_ = p.transition(PlaybackIdle)
	}
	p.section = ""
	p.onNaturalEnd = nil
	p.generation++
}

// Toggle plays, pauses or resumes sectionID. Toggling the section that is
// speaking pauses it, toggling it again resumes it, and toggling any other
// section stops the current one and starts the new one from the beginning.
// onNaturalEnd runs once if the section finishes on its own.
func (p *Playback) Toggle(sectionID, rawText, langCode string, onNaturalEnd func()) error {
	p.mu.Lock()
	if p.section == sectionID {
		switch p.state {
		case PlaybackSpeaking:
			_ = p.transition(PlaybackPaused)
			p.mu.Unlock()
			p.synth.Pause()
			p.logger.Debug().Str("section", sectionID).Msg("Playback paused")
			return nil
		case PlaybackPaused:
			_ = p.transition(PlaybackSpeaking)
			p.mu.Unlock()
			p.synth.Resume()
			p.logger.Debug().Str("section", sectionID).Msg("Playback resumed")
			return nil
		}
	}
	p.reset()
	p.mu.Unlock()

	if p.synth == nil || !p.synth.Available() {
		if p.synth != nil {
			p.synth.Cancel()
		}
		observability.RecordPlaybackError(speech.KindSynthesisUnavailable.String())
		return speech.NewError(speech.KindSynthesisUnavailable, errors.New("speech synthesis is not available"))
	}
	p.synth.Cancel()

	text := Normalize(rawText)
	if text == "" {
		p.logger.Debug().Str("section", sectionID).Msg("Nothing to speak")
		return nil
	}
	loc := p.resolver.Resolve(langCode)

	p.mu.Lock()
	if p.state != PlaybackIdle {
		// A concurrent Toggle won; this call stops it like any other switch.
		p.reset()
	}
	p.generation++
	gen := p.generation
	_ = p.transition(PlaybackSpeaking)
	p.section = sectionID
	p.onNaturalEnd = onNaturalEnd
	p.mu.Unlock()

	err := p.synth.Speak(p.ctx, Utterance{Text: text, Locale: loc}, &utteranceHandler{p: p, gen: gen})
	if err != nil {
		p.mu.Lock()
		if gen == p.generation {
			p.reset()
		}
		p.mu.Unlock()

		observability.RecordPlaybackError(errorKind(err))
		p.logger.Error().Err(err).Str("section", sectionID).Msg("Failed to start speech")
		return fmt.Errorf("speak section %s: %w", sectionID, err)
	}

	p.logger.Info().Str("section", sectionID).Str("locale", loc).Int("chars", len(text)).Msg("Playback started")
	return nil
}

// StopAll cancels any speech and returns to Idle without running the
// pending natural-end callback. It is safe to call repeatedly.
func (p *Playback) StopAll() {
	p.mu.Lock()
	p.reset()
	p.mu.Unlock()

	if p.synth != nil {
		p.synth.Cancel()
	}
}

// IsSpeaking reports whether a section is audibly playing.
func (p *Playback) IsSpeaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == PlaybackSpeaking
}

// State returns the state and the section it applies to ("" when Idle).
func (p *Playback) State() (PlaybackState, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.section
}

func (p *Playback) handleEnd(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.state == PlaybackIdle {
		p.mu.Unlock()
		return
	}
	section := p.section
	cb := p.onNaturalEnd
	p.reset()
	p.mu.Unlock()

	p.logger.Info().Str("section", section).Msg("Playback finished")
	if cb != nil {
		cb()
	}
}

func (p *Playback) handleError(gen uint64, err error) {
	p.mu.Lock()
	if gen != p.generation || p.state == PlaybackIdle {
		p.mu.Unlock()
		return
	}
	section := p.section
	p.reset()
	p.mu.Unlock()

	observability.RecordPlaybackError(errorKind(err))
	p.logger.Error().Err(err).Str("section", section).Msg("Playback failed")
	if p.onError != nil {
		p.onError(section, err)
	}
}

func errorKind(err error) string {
	var se *speech.Error
	if errors.As(err, &se) {
		return se.Kind.String()
	}
	return "synthesis_failed"
}

type utteranceHandler struct {
	p   *Playback
	gen uint64
}

func (h *utteranceHandler) OnEnd()            { h.p.handleEnd(h.gen) }
func (h *utteranceHandler) OnError(err error) { h.p.handleError(h.gen, err) }
