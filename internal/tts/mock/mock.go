// Package mock provides test doubles for the tts package interfaces.
//
// Synthesizer records every call in order so tests can assert that the
// previous utterance was cancelled before the next one was spoken, and it
// exposes the handler of each Speak call so tests can finish or fail an
// utterance on demand.
package mock

import (
	"context"
	"sync"

	"github.com/lexiqai/reader-gateway/internal/tts"
)

// Call names recorded by Synthesizer.
const (
	CallSpeak  = "speak"
	CallCancel = "cancel"
	CallPause  = "pause"
	CallResume = "resume"
)

// SpeakCall records a single invocation of Synthesizer.Speak.
type SpeakCall struct {
	Utterance tts.Utterance
	Handler   tts.UtteranceHandler
}

// Synthesizer is a mock implementation of tts.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// Unavailable makes Available return false.
	Unavailable bool

	// SpeakErr, if non-nil, is returned from Speak.
	SpeakErr error

	// Calls lists method names in call order.
	Calls []string

	// Speaks records every Speak call.
	Speaks []SpeakCall

	speaking bool
	paused   bool
}

// Available returns !Unavailable.
func (s *Synthesizer) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.Unavailable
}

// Speak records the call and returns SpeakErr.
func (s *Synthesizer) Speak(ctx context.Context, u tts.Utterance, h tts.UtteranceHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, CallSpeak)
	if s.SpeakErr != nil {
		return s.SpeakErr
	}
	s.Speaks = append(s.Speaks, SpeakCall{Utterance: u, Handler: h})
	s.speaking = true
	s.paused = false
	return nil
}

func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, CallCancel)
	s.speaking = false
	s.paused = false
}

func (s *Synthesizer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, CallPause)
	s.paused = true
}

func (s *Synthesizer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, CallResume)
	s.paused = false
}

// Speaking reports whether a spoken utterance is neither paused nor cancelled.
func (s *Synthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking && !s.paused
}

// LastSpeak returns the most recent Speak call, or false if there was none.
func (s *Synthesizer) LastSpeak() (SpeakCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Speaks) == 0 {
		return SpeakCall{}, false
	}
	return s.Speaks[len(s.Speaks)-1], true
}

// CallLog returns a copy of Calls.
func (s *Synthesizer) CallLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Calls...)
}

// Finish ends the most recent utterance naturally.
func (s *Synthesizer) Finish() {
	call, ok := s.LastSpeak()
	if !ok {
		return
	}
	s.mu.Lock()
	s.speaking = false
	s.mu.Unlock()
	call.Handler.OnEnd()
}

// Ensure Synthesizer implements tts.Synthesizer at compile time.
var _ tts.Synthesizer = (*Synthesizer)(nil)
