package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/reader-gateway/internal/audio"
	"github.com/lexiqai/reader-gateway/internal/config"
	"github.com/lexiqai/reader-gateway/internal/locale"
	"github.com/lexiqai/reader-gateway/internal/observability"
	"github.com/lexiqai/reader-gateway/internal/resilience"
	"github.com/lexiqai/reader-gateway/internal/speech"
)

const (
	cartesiaService    = "cartesia"
	cartesiaVersion    = "2024-06-10"
	cartesiaSampleRate = 24000 // Rate requested from Cartesia before re-encoding
)

// CartesiaClient fetches synthesized speech from Cartesia's bytes endpoint.
// One client is shared by every stream so they share the circuit breaker.
type CartesiaClient struct {
	config         *config.Config
	apiKey         string
	apiURL         string
	voiceID        string
	modelID        string
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
	retryConfig    *resilience.RetryConfig
	logger         zerolog.Logger
}

// CartesiaRequest represents the request payload for Cartesia TTS API
type CartesiaRequest struct {
	ModelID      string         `json:"model_id"`
	Transcript   string         `json:"transcript"`
	Voice        CartesiaVoice  `json:"voice"`
	OutputFormat CartesiaFormat `json:"output_format"`
	Language     string         `json:"language,omitempty"`
}

// CartesiaVoice selects the voice.
type CartesiaVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

// CartesiaFormat is the requested raw audio format.
type CartesiaFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// NewCartesiaClient creates a new Cartesia TTS client
func NewCartesiaClient(cfg *config.Config) *CartesiaClient {
	circuitBreaker := resilience.NewCircuitBreaker(
		cartesiaService,
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)
	circuitBreaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(to))
	})

	retryConfig := resilience.DefaultRetryConfig()
	if cfg.RetryMaxAttempts > 0 {
		retryConfig.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryInitialBackoff > 0 {
		retryConfig.InitialBackoff = time.Duration(cfg.RetryInitialBackoff) * time.Millisecond
	}

	return &CartesiaClient{
		config:         cfg,
		apiKey:         cfg.CartesiaAPIKey,
		apiURL:         cfg.CartesiaAPIURL,
		voiceID:        cfg.CartesiaVoiceID,
		modelID:        cfg.CartesiaModelID,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		circuitBreaker: circuitBreaker,
		retryConfig:    retryConfig,
		logger:         observability.WithComponent("cartesia"),
	}
}

// Enabled reports whether an API key is configured.
func (c *CartesiaClient) Enabled() bool {
	return c.config.SynthesisEnabled()
}

// Healthy reports whether synthesis requests are currently allowed.
func (c *CartesiaClient) Healthy(ctx context.Context) (bool, error) {
	if !c.Enabled() {
		return false, errors.New("cartesia API key not configured")
	}
	if state := c.circuitBreaker.GetState(); state == resilience.StateOpen {
		return false, fmt.Errorf("cartesia circuit %s", state)
	}
	return true, nil
}

// Fetch synthesizes text in the language of loc and returns 16-bit PCM at
// cartesiaSampleRate. Network failures and 5xx/429 responses are retried.
func (c *CartesiaClient) Fetch(ctx context.Context, text, loc string) ([]byte, error) {
	reqBody := CartesiaRequest{
		ModelID:    c.modelID,
		Transcript: text,
		Voice:      CartesiaVoice{Mode: "id", ID: c.voiceID},
		OutputFormat: CartesiaFormat{
			Container:  "raw",
			Encoding:   "pcm_s16le",
			SampleRate: cartesiaSampleRate,
		},
		Language: locale.Base(loc),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var pcm []byte
	err = resilience.Retry(ctx, func(ctx context.Context) error {
		return c.circuitBreaker.Call(func() error {
			data, err := c.post(ctx, jsonData)
			if err != nil {
				observability.IncrementCircuitBreakerFailures(cartesiaService)
				return err
			}
			pcm = data
			return nil
		})
	}, c.retryConfig, resilience.IsRetryableNetworkError)
	if err != nil {
		return nil, err
	}
	return pcm, nil
}

func (c *CartesiaClient) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("cartesia API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, resilience.NewRetryableError(err)
		}
		return nil, err
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewRetryableError(fmt.Errorf("failed to read audio: %w", err))
	}
	if len(audioData) == 0 {
		return nil, errors.New("cartesia returned empty audio data")
	}
	return audioData, nil
}

// NewSynthesizer returns a Synthesizer that plays audio into sink.
func (c *CartesiaClient) NewSynthesizer(sink AudioSink) *CartesiaSynthesizer {
	return &CartesiaSynthesizer{
		client:        c,
		sink:          sink,
		outputRate:    c.config.PlaybackSampleRate,
		encoding:      c.config.PlaybackEncoding,
		frameDuration: DefaultFrameDuration,
	}
}

// CartesiaSynthesizer implements Synthesizer for one listener.
type CartesiaSynthesizer struct {
	client        *CartesiaClient
	sink          AudioSink
	outputRate    int
	encoding      string
	frameDuration time.Duration

	mu      sync.Mutex
	current *activeUtterance
}

type activeUtterance struct {
	player *Player
	cancel context.CancelFunc
	ready  bool // audio fetched, frames flowing
}

// Available reports whether a key and a sink are configured.
func (s *CartesiaSynthesizer) Available() bool {
	return s.client != nil && s.client.Enabled() && s.sink != nil
}

// Speak replaces any current utterance and starts fetching u in the background.
func (s *CartesiaSynthesizer) Speak(ctx context.Context, u Utterance, h UtteranceHandler) error {
	if !s.Available() {
		return speech.NewError(speech.KindSynthesisUnavailable, errors.New("cartesia synthesis not configured"))
	}
	s.Cancel()

	uctx, cancel := context.WithCancel(ctx)
	cur := &activeUtterance{
		player: NewPlayer(s.sink, audio.BytesPerSecond(s.outputRate, s.encoding), s.frameDuration),
		cancel: cancel,
	}

	s.mu.Lock()
	s.current = cur
	s.mu.Unlock()

	go s.run(uctx, cur, u, h)
	return nil
}

func (s *CartesiaSynthesizer) run(ctx context.Context, cur *activeUtterance, u Utterance, h UtteranceHandler) {
	defer cur.cancel()

	start := time.Now()
	pcm, err := s.client.Fetch(ctx, u.Text, u.Locale)
	observability.ObserveSynthesisLatency(time.Since(start).Seconds())
	if err == nil {
		pcm, err = audio.Encode(pcm, cartesiaSampleRate, s.outputRate, s.encoding)
	}
	if err != nil {
		if s.finish(cur) && ctx.Err() == nil {
			h.OnError(fmt.Errorf("synthesize: %w", err))
		}
		return
	}

	s.mu.Lock()
	cur.ready = true
	s.mu.Unlock()

	err = cur.player.Play(ctx, pcm)
	if errors.Is(err, ErrPlaybackCancelled) || ctx.Err() != nil {
		s.finish(cur)
		return
	}
	if !s.finish(cur) {
		return
	}
	observability.RecordAudioBytes("out", int64(len(pcm)))
	if err != nil {
		h.OnError(fmt.Errorf("play audio: %w", err))
		return
	}
	h.OnEnd()
}

// finish clears cur if it is still current and reports whether it was.
func (s *CartesiaSynthesizer) finish(cur *activeUtterance) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != cur {
		return false
	}
	s.current = nil
	return true
}

// Cancel stops the current utterance without callbacks.
func (s *CartesiaSynthesizer) Cancel() {
	s.mu.Lock()
	cur := s.current
	s.current = nil
	s.mu.Unlock()

	if cur != nil {
		cur.player.Cancel()
		cur.cancel()
	}
}

// Pause holds the current utterance. Audio still being fetched starts paused.
func (s *CartesiaSynthesizer) Pause() {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur != nil {
		cur.player.Pause()
	}
}

// Resume continues a paused utterance.
func (s *CartesiaSynthesizer) Resume() {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur != nil {
		cur.player.Resume()
	}
}

// Speaking reports whether frames are flowing to the sink.
func (s *CartesiaSynthesizer) Speaking() bool {
	s.mu.Lock()
	cur := s.current
	ready := cur != nil && cur.ready
	s.mu.Unlock()
	return ready && !cur.player.Paused()
}
