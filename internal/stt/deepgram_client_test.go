package stt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"

	"github.com/lexiqai/reader-gateway/internal/audio"
	"github.com/lexiqai/reader-gateway/internal/config"
	"github.com/lexiqai/reader-gateway/internal/speech"
)

type fakeWriter struct {
	mu       sync.Mutex
	written  int
	writeErr error
	stopped  int
}

func (f *fakeWriter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written += len(p)
	return len(p), nil
}

func (f *fakeWriter) Stop() { f.mu.Lock(); f.stopped++; f.mu.Unlock() }

func (f *fakeWriter) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type recordingHandler struct {
	mu      sync.Mutex
	batches []ResultBatch
	errs    []error
	ends    int
}

func (h *recordingHandler) OnResults(b ResultBatch) { h.mu.Lock(); h.batches = append(h.batches, b); h.mu.Unlock() }
func (h *recordingHandler) OnError(err error)       { h.mu.Lock(); h.errs = append(h.errs, err); h.mu.Unlock() }
func (h *recordingHandler) OnEnd()                  { h.mu.Lock(); h.ends++; h.mu.Unlock() }

func (h *recordingHandler) errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errs...)
}

func testRecognizerConfig() *config.Config {
	return &config.Config{
		DeepgramAPIKey:             "test-key",
		DeepgramModel:              "nova-2",
		CaptureSampleRate:          16000,
		VADEnergyThreshold:         500,
		VADSilenceFrames:           10,
		CircuitBreakerMaxFailures:  2,
		CircuitBreakerResetTimeout: 30,
	}
}

func newTestSession(continuous bool) (*deepgramSession, *fakeWriter, *recordingHandler) {
	d := NewDeepgramRecognizer(testRecognizerConfig())
	h := &recordingHandler{}
	s := newDeepgramSession(d, RecognitionOptions{Locale: "en-US", Continuous: continuous, InterimResults: true}, h)
	w := &fakeWriter{}
	s.attach(w)
	return s, w, h
}

func resultMessage(text string, isFinal bool) *msginterfaces.MessageResponse {
	return &msginterfaces.MessageResponse{
		Type:    "Results",
		IsFinal: isFinal,
		Channel: msginterfaces.Channel{
			Alternatives: []msginterfaces.Alternative{{Transcript: text, Confidence: 0.9}},
		},
	}
}

func TestDeepgramSession_CumulativeResults(t *testing.T) {
	s, _, h := newTestSession(true)

	s.handleMessage(resultMessage("hel", false))
	s.handleMessage(resultMessage("hello", false))
	s.handleMessage(resultMessage("hello there", true))
	s.handleMessage(resultMessage("how", false))

	if len(h.batches) != 4 {
		t.Fatalf("Expected 4 batches, got %d", len(h.batches))
	}

	third := h.batches[2]
	if third.ResultIndex != 0 || len(third.Results) != 1 || !third.Results[0].IsFinal {
		t.Errorf("Expected the final to replace the interim at index 0, got %+v", third)
	}

	last := h.batches[3]
	if last.ResultIndex != 1 || len(last.Results) != 2 {
		t.Fatalf("Expected a new interim entry at index 1, got %+v", last)
	}
	if last.Results[0].Alternatives[0].Transcript != "hello there" {
		t.Errorf("Expected committed result to be kept, got %+v", last.Results[0])
	}
}

func TestDeepgramSession_EmptyFinalDropsInterim(t *testing.T) {
	s, _, h := newTestSession(true)

	s.handleMessage(resultMessage("uh", false))
	s.handleMessage(resultMessage("", true))
	s.handleMessage(resultMessage("next", true))

	last := h.batches[len(h.batches)-1]
	if last.ResultIndex != 0 || len(last.Results) != 1 {
		t.Errorf("Expected the abandoned interim to be removed, got %+v", last)
	}
}

func TestDeepgramSession_NonContinuousStopsAfterFinal(t *testing.T) {
	s, w, h := newTestSession(false)

	s.handleMessage(resultMessage("one shot", true))

	if w.stops() != 1 {
		t.Errorf("Expected the stream closed after the first final, got %d", w.stops())
	}
	if h.ends != 1 {
		t.Errorf("Expected one end event, got %d", h.ends)
	}
}

func TestDeepgramSession_StopAndAbort(t *testing.T) {
	s, w, h := newTestSession(true)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	s.Stop()
	s.Abort()

	if w.stops() != 1 {
		t.Errorf("Expected the stream closed exactly once, got %d", w.stops())
	}
	if h.ends != 1 {
		t.Errorf("Expected 1 end event, got %d", h.ends)
	}
	if err := s.SendAudio([]byte{0, 0}); !errors.Is(err, ErrNotListening) {
		t.Errorf("Expected ErrNotListening after stop, got %v", err)
	}
}

func TestDeepgramSession_AbortAfterErrorClosesStream(t *testing.T) {
	s, w, h := newTestSession(true)

	s.handleError(&msginterfaces.ErrorResponse{})
	s.Abort()

	if len(h.errors()) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(h.errors()))
	}
	if w.stops() != 1 {
		t.Errorf("Expected the stream to be closed on abort, got %d", w.stops())
	}
}

func TestDeepgramSession_SendAudioFailure(t *testing.T) {
	s, w, h := newTestSession(true)
	w.writeErr = errors.New("connection reset")

	if err := s.SendAudio(make([]byte, 640)); err == nil {
		t.Fatal("Expected write error")
	}
	errs := h.errors()
	if len(errs) != 1 || !errors.Is(speech.Normalize(errs[0]), speech.ErrRecognition) {
		t.Errorf("Expected one recognition error, got %v", errs)
	}
}

func TestDeepgramSession_NoSpeechTimeout(t *testing.T) {
	s, _, h := newTestSession(true)

	quiet := audio.SamplesToBytes(make([]int16, 320))
	if err := s.SendAudio(quiet); err != nil {
		t.Fatalf("SendAudio failed: %v", err)
	}
	s.watchNoSpeech(20 * time.Millisecond)

	errs := h.errors()
	if len(errs) != 1 || !errors.Is(speech.Normalize(errs[0]), speech.ErrNoSpeechDetected) {
		t.Errorf("Expected NoSpeechDetected, got %v", errs)
	}
}

func TestDeepgramSession_SpeechCancelsNoSpeechTimeout(t *testing.T) {
	s, _, h := newTestSession(true)

	loud := make([]int16, 320)
	for i := range loud {
		loud[i] = 4000
	}
	s.SendAudio(audio.SamplesToBytes(loud))
	s.watchNoSpeech(20 * time.Millisecond)

	if errs := h.errors(); len(errs) != 0 {
		t.Errorf("Expected no error after speech, got %v", errs)
	}
}

func TestDeepgramRecognizer_Unsupported(t *testing.T) {
	cfg := testRecognizerConfig()
	cfg.DeepgramAPIKey = ""
	d := NewDeepgramRecognizer(cfg)

	if d.Supported() {
		t.Error("Expected Supported false without an API key")
	}
	_, err := d.Start(context.Background(), RecognitionOptions{Locale: "en-US"}, &recordingHandler{})
	if !errors.Is(err, speech.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if ok, _ := d.Healthy(context.Background()); ok {
		t.Error("Expected unhealthy without an API key")
	}
}
