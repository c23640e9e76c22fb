package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the reader gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Deepgram STT configuration. Without a key, voice input reports itself unsupported.
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base

	// Cartesia TTS configuration. Without a key, read-aloud reports synthesis unavailable.
	CartesiaAPIKey  string `envconfig:"CARTESIA_API_KEY" default:""`
	CartesiaVoiceID string `envconfig:"CARTESIA_VOICE_ID" default:"sonic-english"`
	CartesiaModelID string `envconfig:"CARTESIA_MODEL_ID" default:"sonic-multilingual"`
	CartesiaAPIURL  string `envconfig:"CARTESIA_API_URL" default:"https://api.cartesia.ai/tts/bytes"`

	// Locale used when a language code has no mapping
	DefaultLocale string `envconfig:"DEFAULT_LOCALE" default:"en-US"`

	// Audio configuration
	CaptureSampleRate  int     `envconfig:"CAPTURE_SAMPLE_RATE" default:"16000"`  // Microphone PCM rate sent by clients
	PlaybackSampleRate int     `envconfig:"PLAYBACK_SAMPLE_RATE" default:"24000"` // Rate of audio sent back to clients
	PlaybackEncoding   string  `envconfig:"PLAYBACK_ENCODING" default:"pcm"`      // pcm or mulaw
	AudioBufferSize    int     `envconfig:"AUDIO_BUFFER_SIZE" default:"32768"`    // Ring buffer size in bytes
	VADEnergyThreshold float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"500.0"` // RMS energy threshold for VAD
	VADSilenceFrames   int     `envconfig:"VAD_SILENCE_FRAMES" default:"10"`      // Frames of silence to mark speech end
	NoSpeechTimeout    int     `envconfig:"NO_SPEECH_TIMEOUT" default:"8"`        // Seconds without speech before no-speech error

	// External analysis service (gRPC health endpoint). Optional.
	AnalysisServiceURL string `envconfig:"ANALYSIS_SERVICE_URL" default:""`
	AnalysisTimeout    int    `envconfig:"ANALYSIS_TIMEOUT" default:"5"` // seconds

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.PlaybackEncoding {
	case "pcm", "mulaw":
	default:
		return fmt.Errorf("PLAYBACK_ENCODING must be pcm or mulaw, got %q", c.PlaybackEncoding)
	}
	if c.CaptureSampleRate <= 0 || c.PlaybackSampleRate <= 0 {
		return fmt.Errorf("sample rates must be positive (capture=%d, playback=%d)", c.CaptureSampleRate, c.PlaybackSampleRate)
	}
	if c.AudioBufferSize < 2 {
		return fmt.Errorf("AUDIO_BUFFER_SIZE must be at least 2, got %d", c.AudioBufferSize)
	}
	return nil
}

// RecognitionEnabled reports whether a speech recognition backend is configured.
func (c *Config) RecognitionEnabled() bool {
	return c.DeepgramAPIKey != ""
}

// SynthesisEnabled reports whether a speech synthesis backend is configured.
func (c *Config) SynthesisEnabled() bool {
	return c.CartesiaAPIKey != ""
}

// NoSpeechTimeoutDuration returns NoSpeechTimeout as a duration.
func (c *Config) NoSpeechTimeoutDuration() time.Duration {
	return time.Duration(c.NoSpeechTimeout) * time.Second
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
