package audio

import "time"

// VADConfig holds configuration for Voice Activity Detection
type VADConfig struct {
	EnergyThreshold float64 // RMS energy threshold for speech detection
	SilenceFrames   int     // Number of consecutive silence frames to mark as end of speech
	FrameSize       int     // Number of samples per frame
}

// DefaultVADConfig returns a configuration for 20ms frames of 16kHz microphone audio.
func DefaultVADConfig() *VADConfig {
	return NewVADConfig(500.0, 10, 16000)
}

// NewVADConfig sizes frames to 20ms at sampleRate.
func NewVADConfig(threshold float64, silenceFrames, sampleRate int) *VADConfig {
	frame := sampleRate / 50
	if frame < 1 {
		frame = 1
	}
	if silenceFrames < 1 {
		silenceFrames = 1
	}
	return &VADConfig{
		EnergyThreshold: threshold,
		SilenceFrames:   silenceFrames,
		FrameSize:       frame,
	}
}

// VADDetector performs Voice Activity Detection. It is not safe for
// concurrent use.
type VADDetector struct {
	config         *VADConfig
	silenceCounter int
	isSpeaking     bool
	heardSpeech    bool
	pending        []int16
}

// NewVADDetector creates a new VAD detector
func NewVADDetector(config *VADConfig) *VADDetector {
	if config == nil {
		config = DefaultVADConfig()
	}
	return &VADDetector{config: config}
}

// ProcessFrame processes an audio frame and returns whether speech is detected
// Returns: (isSpeaking, speechStarted, speechEnded)
func (v *VADDetector) ProcessFrame(samples []int16) (bool, bool, bool) {
	frameHasSpeech := CalculateRMS(samples) > v.config.EnergyThreshold

	var speechStarted, speechEnded bool

	if frameHasSpeech {
		v.silenceCounter = 0
		v.heardSpeech = true
		if !v.isSpeaking {
			speechStarted = true
			v.isSpeaking = true
		}
	} else {
		v.silenceCounter++
		if v.isSpeaking && v.silenceCounter >= v.config.SilenceFrames {
			speechEnded = true
			v.isSpeaking = false
			v.silenceCounter = 0
		}
	}

	return v.isSpeaking, speechStarted, speechEnded
}

// ProcessPCM splits 16-bit little-endian PCM into frames and runs each one.
// Samples short of a full frame are carried into the next call. It reports
// whether any processed frame contained speech.
func (v *VADDetector) ProcessPCM(pcm []byte) bool {
	v.pending = append(v.pending, BytesToSamples(pcm)...)

	speech := false
	size := v.config.FrameSize
	for len(v.pending) >= size {
		if _, started, _ := v.ProcessFrame(v.pending[:size]); started || v.isSpeaking {
			speech = true
		}
		v.pending = v.pending[size:]
	}
	if len(v.pending) == 0 {
		v.pending = nil
	}
	return speech
}

// Reset resets the VAD detector state
func (v *VADDetector) Reset() {
	v.silenceCounter = 0
	v.isSpeaking = false
	v.heardSpeech = false
	v.pending = nil
}

// IsSpeaking returns whether speech is currently detected
func (v *VADDetector) IsSpeaking() bool {
	return v.isSpeaking
}

// HeardSpeech reports whether any frame since the last Reset held speech.
func (v *VADDetector) HeardSpeech() bool {
	return v.heardSpeech
}

// FrameDuration returns the length of one frame at sampleRate.
func (c *VADConfig) FrameDuration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(c.FrameSize) * time.Second / time.Duration(sampleRate)
}

// DetectSilence detects if audio samples represent silence
func DetectSilence(samples []int16, threshold float64) bool {
	return CalculateRMS(samples) < threshold
}
