package tts

import "context"

// Utterance is one piece of text to speak.
type Utterance struct {
	// Text is plain text, already stripped of markup.
	Text string

	// Locale is a full locale tag such as "ta-IN".
	Locale string
}

// UtteranceHandler receives the outcome of one utterance. Exactly one of the
// methods is called, unless the utterance is cancelled, in which case neither is.
type UtteranceHandler interface {
	OnEnd()
	OnError(err error)
}

// Synthesizer is the speech synthesis platform.
type Synthesizer interface {
	// Available reports whether synthesis can run at all.
	Available() bool

	// Speak starts speaking u, replacing anything in progress. It returns
	// once the utterance is queued; the outcome is reported to h.
	Speak(ctx context.Context, u Utterance, h UtteranceHandler) error

	// Cancel stops the current utterance without notifying its handler.
	Cancel()

	// Pause and Resume suspend and continue the current utterance.
	Pause()
	Resume()

	// Speaking reports whether audio is being produced right now.
	Speaking() bool
}

// AudioSink receives synthesized audio frames in playback order.
type AudioSink interface {
	WriteAudio(frame []byte) error
}

// AudioSinkFunc adapts a function to an AudioSink.
type AudioSinkFunc func(frame []byte) error

// WriteAudio calls f(frame).
func (f AudioSinkFunc) WriteAudio(frame []byte) error {
	return f(frame)
}
