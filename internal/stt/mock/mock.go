// Package mock provides test doubles for the stt package interfaces.
//
// Use Recognizer to inspect the options a session was started with and to
// drive the handler it received. Use Session to inspect the audio delivered
// and how the session was terminated.
//
// Example:
//
//	rec := &mock.Recognizer{Available: true}
//	capture := stt.NewCapture(rec)
//	capture.Start(ctx, "hi", listener)
//	rec.Handler().OnResults(stt.ResultBatch{...})
package mock

import (
	"context"
	"sync"

	"github.com/lexiqai/reader-gateway/internal/stt"
)

// StartCall records a single invocation of Recognizer.Start.
type StartCall struct {
	// Ctx is the context passed to Start.
	Ctx context.Context
	// Opts is the RecognitionOptions passed to Start.
	Opts stt.RecognitionOptions
	// Handler is the handler passed to Start.
	Handler stt.RecognitionHandler
}

// Recognizer is a mock implementation of stt.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Available is returned by Supported.
	Available bool

	// StartErr, if non-nil, is returned as the error from Start.
	StartErr error

	// Session is returned by Start. If nil, a new Session is created per call.
	Session *Session

	// StartCalls records every call to Start.
	StartCalls []StartCall
}

// Supported returns Available.
func (r *Recognizer) Supported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Available
}

// Start records the call and returns Session, StartErr.
func (r *Recognizer) Start(ctx context.Context, opts stt.RecognitionOptions, handler stt.RecognitionHandler) (stt.RecognitionSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartCalls = append(r.StartCalls, StartCall{Ctx: ctx, Opts: opts, Handler: handler})
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	sess := r.Session
	if sess == nil {
		sess = &Session{}
	}
	sess.bind(handler)
	return sess, nil
}

// Handler returns the handler from the most recent Start call, or nil.
func (r *Recognizer) Handler() stt.RecognitionHandler {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.StartCalls) == 0 {
		return nil
	}
	return r.StartCalls[len(r.StartCalls)-1].Handler
}

// Calls returns a copy of the recorded Start calls.
func (r *Recognizer) Calls() []StartCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StartCall, len(r.StartCalls))
	copy(out, r.StartCalls)
	return out
}

// Ensure Recognizer implements stt.Recognizer at compile time.
var _ stt.Recognizer = (*Recognizer)(nil)

// Session is a mock implementation of stt.RecognitionSession.
type Session struct {
	mu      sync.Mutex
	handler stt.RecognitionHandler

	// SendAudioErr, if non-nil, is returned from SendAudio.
	SendAudioErr error

	// StopErr, if non-nil, is returned from Stop.
	StopErr error

	// EndOnStop makes Stop confirm the end immediately through the handler.
	EndOnStop bool

	// Chunks holds a copy of every chunk passed to SendAudio.
	Chunks [][]byte

	// StopCalls and AbortCalls count terminations.
	StopCalls  int
	AbortCalls int
}

func (s *Session) bind(h stt.RecognitionHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// SendAudio records a copy of chunk.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendAudioErr != nil {
		return s.SendAudioErr
	}
	s.Chunks = append(s.Chunks, append([]byte(nil), chunk...))
	return nil
}

// Stop counts the call and, with EndOnStop, fires OnEnd.
func (s *Session) Stop() error {
	s.mu.Lock()
	s.StopCalls++
	err := s.StopErr
	h := s.handler
	end := s.EndOnStop && err == nil
	s.mu.Unlock()

	if end && h != nil {
		h.OnEnd()
	}
	return err
}

// Abort counts the call.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AbortCalls++
}

// Audio returns copies of the chunks received so far.
func (s *Session) Audio() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.Chunks...)
}

// Counts returns StopCalls and AbortCalls.
func (s *Session) Counts() (stops, aborts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.StopCalls, s.AbortCalls
}

// Ensure Session implements stt.RecognitionSession at compile time.
var _ stt.RecognitionSession = (*Session)(nil)

// Listener records capture events. It implements stt.Listener.
type Listener struct {
	mu      sync.Mutex
	Results []stt.RecognitionEvent
	Errors  []error
	Ends    int
}

func (l *Listener) OnResult(event stt.RecognitionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Results = append(l.Results, event)
}

func (l *Listener) OnError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, err)
}

func (l *Listener) OnEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Ends++
}

// Snapshot returns copies of the recorded events.
func (l *Listener) Snapshot() ([]stt.RecognitionEvent, []error, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]stt.RecognitionEvent(nil), l.Results...), append([]error(nil), l.Errors...), l.Ends
}

var _ stt.Listener = (*Listener)(nil)
