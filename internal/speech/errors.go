// Package speech holds the error taxonomy shared by the capture (stt) and
// playback (tts) controllers.
package speech

import (
	"errors"
	"fmt"
)

// Kind classifies a speech failure for the caller.
type Kind int

const (
	KindUnsupported          Kind = iota // Platform has no recognition capability
	KindPermissionDenied                 // Microphone access refused
	KindNoSpeechDetected                 // Session ran without hearing speech
	KindRecognitionError                 // Any other recognition failure
	KindSynthesisUnavailable             // Platform has no synthesis capability
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNoSpeechDetected:
		return "no_speech"
	case KindRecognitionError:
		return "recognition_error"
	case KindSynthesisUnavailable:
		return "synthesis_unavailable"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Sentinels for errors.Is checks against a normalised *Error.
var (
	ErrUnsupported          = &Error{Kind: KindUnsupported}
	ErrPermissionDenied     = &Error{Kind: KindPermissionDenied}
	ErrNoSpeechDetected     = &Error{Kind: KindNoSpeechDetected}
	ErrRecognition          = &Error{Kind: KindRecognitionError}
	ErrSynthesisUnavailable = &Error{Kind: KindSynthesisUnavailable}
)

// Error is a normalised speech error.
type Error struct {
	Kind Kind
	Err  error
}

// NewError wraps err with the given kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "speech: " + e.Kind.String()
	}
	return fmt.Sprintf("speech: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Message returns the user-facing text for the error's kind.
func (e *Error) Message() string {
	return UserMessage(e.Kind)
}

// Platform error codes as reported by recognition services.
const (
	CodeNotAllowed        = "not-allowed"
	CodeServiceNotAllowed = "service-not-allowed"
	CodeNoSpeech          = "no-speech"
	CodeAudioCapture      = "audio-capture"
	CodeNetwork           = "network"
	CodeAborted           = "aborted"
)

// PlatformError is a raw failure reported by a speech platform before normalisation.
type PlatformError struct {
	Code    string
	Message string
}

func (e *PlatformError) Error() string {
	if e.Message == "" {
		return "platform error: " + e.Code
	}
	return fmt.Sprintf("platform error: %s: %s", e.Code, e.Message)
}

// Normalize maps any error to an *Error. Errors that are already normalised
// are returned unchanged; platform codes are classified; everything else is a
// recognition error.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	var pe *PlatformError
	if errors.As(err, &pe) {
		switch pe.Code {
		case CodeNotAllowed, CodeServiceNotAllowed:
			return NewError(KindPermissionDenied, err)
		case CodeNoSpeech:
			return NewError(KindNoSpeechDetected, err)
		}
	}

	return NewError(KindRecognitionError, err)
}

// UserMessage returns an actionable message for kind.
func UserMessage(kind Kind) string {
	switch kind {
	case KindUnsupported:
		return "Voice input is not available here. Please type your text instead."
	case KindPermissionDenied:
		return "Microphone access was denied. Allow microphone access and try again."
	case KindNoSpeechDetected:
		return "No speech was detected. Check your microphone and speak after starting."
	case KindSynthesisUnavailable:
		return "Read-aloud is not available right now."
	default:
		return "Voice input failed. Please try again."
	}
}
