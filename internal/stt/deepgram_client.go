package stt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/lexiqai/reader-gateway/internal/audio"
	"github.com/lexiqai/reader-gateway/internal/config"
	"github.com/lexiqai/reader-gateway/internal/observability"
	"github.com/lexiqai/reader-gateway/internal/resilience"
	"github.com/lexiqai/reader-gateway/internal/speech"
)

const deepgramService = "deepgram"

// messageCallbackHandler implements the LiveMessageCallback interface
// It embeds the default handler and overrides only the methods we need to customize
type messageCallbackHandler struct {
	*websocketv1api.DefaultCallbackHandler
	handler      func(*msginterfaces.MessageResponse)
	errorHandler func(*msginterfaces.ErrorResponse)
}

// Message forwards transcription results to the session.
func (m *messageCallbackHandler) Message(message *msginterfaces.MessageResponse) error {
	m.handler(message)
	return nil
}

// Error forwards service errors to the session.
func (m *messageCallbackHandler) Error(errorResponse *msginterfaces.ErrorResponse) error {
	m.errorHandler(errorResponse)
	return nil
}

// DeepgramRecognizer implements Recognizer using Deepgram's streaming API.
type DeepgramRecognizer struct {
	config         *config.Config
	circuitBreaker *resilience.CircuitBreaker
	logger         zerolog.Logger
}

// NewDeepgramRecognizer creates a recognizer. Without an API key it reports
// itself unsupported.
func NewDeepgramRecognizer(cfg *config.Config) *DeepgramRecognizer {
	circuitBreaker := resilience.NewCircuitBreaker(
		deepgramService,
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)
	circuitBreaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(to))
	})

	return &DeepgramRecognizer{
		config:         cfg,
		circuitBreaker: circuitBreaker,
		logger:         observability.WithComponent("deepgram"),
	}
}

// Supported reports whether an API key is configured.
func (d *DeepgramRecognizer) Supported() bool {
	return d.config.RecognitionEnabled()
}

// Healthy reports whether the circuit breaker currently lets sessions start.
func (d *DeepgramRecognizer) Healthy(ctx context.Context) (bool, error) {
	if !d.Supported() {
		return false, errors.New("deepgram API key not configured")
	}
	if state := d.circuitBreaker.GetState(); state == resilience.StateOpen {
		return false, fmt.Errorf("deepgram circuit %s", state)
	}
	return true, nil
}

// Start opens a live transcription websocket for opts.Locale.
func (d *DeepgramRecognizer) Start(ctx context.Context, opts RecognitionOptions, handler RecognitionHandler) (RecognitionSession, error) {
	if !d.Supported() {
		return nil, speech.NewError(speech.KindUnsupported, errors.New("deepgram API key not configured"))
	}
	if !d.circuitBreaker.Allow() {
		return nil, &speech.PlatformError{Code: speech.CodeNetwork, Message: resilience.ErrCircuitOpen.Error()}
	}

	sess := newDeepgramSession(d, opts, handler)

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          d.config.DeepgramModel,
		Language:       opts.Locale,
		Punctuate:      true,
		InterimResults: opts.InterimResults,
		UtteranceEndMs: "1000",
		VadEvents:      true,
		Encoding:       "linear16",
		Channels:       1,
		SampleRate:     d.config.CaptureSampleRate,
	}

	callback := &messageCallbackHandler{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		handler:                sess.handleMessage,
		errorHandler:           sess.handleError,
	}

	client, err := listenClient.NewWSUsingCallback(
		ctx,
		d.config.DeepgramAPIKey,
		nil, // ClientOptions - nil uses defaults
		tOptions,
		callback,
	)
	if err != nil {
		d.recordFailure()
		return nil, fmt.Errorf("failed to create Deepgram client: %w", err)
	}
	if !client.Connect() {
		d.recordFailure()
		return nil, &speech.PlatformError{Code: speech.CodeNetwork, Message: "failed to connect to Deepgram"}
	}
	d.circuitBreaker.RecordResult(true)

	sess.attach(client)
	go sess.watchNoSpeech(d.config.NoSpeechTimeoutDuration())

	d.logger.Info().
		Str("model", d.config.DeepgramModel).
		Str("language", opts.Locale).
		Bool("interim", opts.InterimResults).
		Msg("Deepgram session started")
	return sess, nil
}

func (d *DeepgramRecognizer) recordFailure() {
	d.circuitBreaker.RecordResult(false)
	observability.IncrementCircuitBreakerFailures(deepgramService)
}

// audioWriter is the part of the Deepgram client a session writes to. Stop
// sends CloseStream and closes the socket.
type audioWriter interface {
	Write(p []byte) (int, error)
	Stop()
}

// deepgramSession adapts one Deepgram stream to RecognitionSession. It keeps
// the cumulative result list that RecognitionHandler expects: interim results
// for the current utterance replace the trailing entry until it is final.
type deepgramSession struct {
	recognizer *DeepgramRecognizer
	handler    RecognitionHandler
	continuous bool
	logger     zerolog.Logger

	mu       sync.Mutex
	client   audioWriter
	vad      *audio.VADDetector
	results  []RecognitionResult
	heard    bool
	finished bool

	done     chan struct{}
	doneOnce sync.Once
}

func newDeepgramSession(d *DeepgramRecognizer, opts RecognitionOptions, handler RecognitionHandler) *deepgramSession {
	return &deepgramSession{
		recognizer: d,
		handler:    handler,
		continuous: opts.Continuous,
		logger:     d.logger.With().Str("language", opts.Locale).Logger(),
		vad: audio.NewVADDetector(audio.NewVADConfig(
			d.config.VADEnergyThreshold,
			d.config.VADSilenceFrames,
			d.config.CaptureSampleRate,
		)),
		done: make(chan struct{}),
	}
}

func (s *deepgramSession) attach(client audioWriter) {
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
}

// finish marks the session over. It reports whether this call did so.
func (s *deepgramSession) finish() bool {
	first := false
	s.doneOnce.Do(func() {
		close(s.done)
		first = true
	})
	return first
}

func (s *deepgramSession) handleMessage(msg *msginterfaces.MessageResponse) {
	if msg == nil || len(msg.Channel.Alternatives) == 0 {
		return
	}

	alts := make([]Alternative, 0, len(msg.Channel.Alternatives))
	for _, a := range msg.Channel.Alternatives {
		alts = append(alts, Alternative{Transcript: a.Transcript, Confidence: a.Confidence})
	}
	result := RecognitionResult{IsFinal: msg.IsFinal, Alternatives: alts}

	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	if alts[0].Transcript != "" {
		s.heard = true
	}

	// Empty finals close out an utterance without adding text.
	if msg.IsFinal && alts[0].Transcript == "" {
		if n := len(s.results); n > 0 && !s.results[n-1].IsFinal {
			s.results = s.results[:n-1]
		}
		s.mu.Unlock()
		return
	}
	if !msg.IsFinal && alts[0].Transcript == "" {
		s.mu.Unlock()
		return
	}

	index := len(s.results)
	if index > 0 && !s.results[index-1].IsFinal {
		index--
		s.results[index] = result
	} else {
		s.results = append(s.results, result)
	}
	batch := ResultBatch{
		ResultIndex: index,
		Results:     append([]RecognitionResult(nil), s.results...),
	}
	stopAfter := msg.IsFinal && !s.continuous
	s.mu.Unlock()

	s.logger.Debug().
		Bool("is_final", msg.IsFinal).
		Float64("confidence", alts[0].Confidence).
		Float64("start", msg.Start).
		Float64("duration", msg.Duration).
		Msg("Deepgram result")

	s.handler.OnResults(batch)
	if stopAfter {
		_ = s.Stop()
	}
}

func (s *deepgramSession) handleError(errorResponse *msginterfaces.ErrorResponse) {
	s.logger.Error().Str("error", fmt.Sprintf("%+v", errorResponse)).Msg("Deepgram error")
	s.recognizer.recordFailure()
	s.fail(&speech.PlatformError{Code: speech.CodeNetwork, Message: fmt.Sprintf("%+v", errorResponse)})
}

func (s *deepgramSession) fail(err error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.mu.Unlock()

	s.finish()
	s.handler.OnError(err)
}

// watchNoSpeech fails the session if nothing resembling speech arrives
// within timeout. A zero timeout disables the check.
func (s *deepgramSession) watchNoSpeech(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.done:
		return
	case <-timer.C:
	}

	s.mu.Lock()
	heard := s.heard || s.vad.HeardSpeech()
	s.mu.Unlock()
	if heard {
		return
	}
	s.fail(&speech.PlatformError{Code: speech.CodeNoSpeech, Message: fmt.Sprintf("no speech within %s", timeout)})
}

// SendAudio forwards PCM to Deepgram through the circuit breaker.
func (s *deepgramSession) SendAudio(chunk []byte) error {
	s.mu.Lock()
	if s.finished || s.client == nil {
		s.mu.Unlock()
		return ErrNotListening
	}
	s.vad.ProcessPCM(chunk)
	client := s.client
	s.mu.Unlock()

	err := s.recognizer.circuitBreaker.Call(func() error {
		if _, err := client.Write(chunk); err != nil {
			return fmt.Errorf("failed to send audio to Deepgram: %w", err)
		}
		return nil
	})
	if err != nil {
		observability.IncrementCircuitBreakerFailures(deepgramService)
		s.fail(&speech.PlatformError{Code: speech.CodeNetwork, Message: err.Error()})
		return err
	}

	observability.RecordAudioBytes("in", int64(len(chunk)))
	return nil
}

// Stop closes the stream and confirms the end to the handler.
func (s *deepgramSession) Stop() error {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return nil
	}
	s.finished = true
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client != nil {
		client.Stop()
	}
	s.finish()
	s.logger.Info().Msg("Deepgram session finished")
	s.handler.OnEnd()
	return nil
}

// Abort closes the stream without an end event.
func (s *deepgramSession) Abort() {
	s.mu.Lock()
	s.finished = true
	client := s.client
	s.client = nil
	s.mu.Unlock()

	s.finish()
	if client != nil {
		client.Stop()
	}
}
