package stt

import "context"

// RecognitionOptions configures one recognition session.
type RecognitionOptions struct {
	// Locale is a full locale tag such as "hi-IN".
	Locale string

	// Continuous keeps the session open across pauses in speech.
	Continuous bool

	// InterimResults requests non-final hypotheses while the user speaks.
	InterimResults bool
}

// Alternative is one hypothesis for a result.
type Alternative struct {
	Transcript string
	Confidence float64
}

// RecognitionResult is one entry of the session's cumulative result list.
type RecognitionResult struct {
	IsFinal      bool
	Alternatives []Alternative
}

// ResultBatch is the cumulative result list for a session. ResultIndex is the
// first entry that changed since the previous batch.
type ResultBatch struct {
	ResultIndex int
	Results     []RecognitionResult
}

// RecognitionHandler receives platform events for a session. Implementations
// must not block.
type RecognitionHandler interface {
	OnResults(batch ResultBatch)
	OnError(err error)
	OnEnd()
}

// RecognitionSession is a live recognition session.
type RecognitionSession interface {
	// SendAudio forwards a chunk of 16-bit little-endian mono PCM.
	SendAudio(chunk []byte) error

	// Stop requests termination. The end is confirmed later through OnEnd.
	Stop() error

	// Abort releases the session immediately. No end event is required.
	Abort()
}

// Recognizer is the speech recognition platform.
type Recognizer interface {
	// Supported reports whether recognition can run at all.
	Supported() bool

	// Start opens a session that reports to handler until it ends or is aborted.
	Start(ctx context.Context, opts RecognitionOptions, handler RecognitionHandler) (RecognitionSession, error)
}

// RecognitionEvent is what the capture controller emits for each result batch.
type RecognitionEvent struct {
	// FinalTranscript is the trimmed text committed by this batch, if any.
	FinalTranscript string

	// InterimTranscript is the current non-final hypothesis.
	InterimTranscript string

	// IsFinal is true when FinalTranscript is non-empty.
	IsFinal bool
}

// Listener receives capture events. Callbacks are never invoked while the
// controller holds its lock, so they may call back into the controller.
type Listener interface {
	OnResult(event RecognitionEvent)
	OnError(err error)
	OnEnd()
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Result func(RecognitionEvent)
	Error  func(error)
	End    func()
}

func (l ListenerFuncs) OnResult(event RecognitionEvent) {
	if l.Result != nil {
		l.Result(event)
	}
}

func (l ListenerFuncs) OnError(err error) {
	if l.Error != nil {
		l.Error(err)
	}
}

func (l ListenerFuncs) OnEnd() {
	if l.End != nil {
		l.End()
	}
}
