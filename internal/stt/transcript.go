package stt

import "strings"

// TranscriptBuffer is the caller-side view of a capture session: Text holds
// committed speech and Preview the current interim hypothesis.
type TranscriptBuffer struct {
	Text    string
	Preview string
}

// Apply folds an event into the buffer. Final text is appended and clears
// the preview; interim-only events replace the preview and leave Text alone.
func (b *TranscriptBuffer) Apply(event RecognitionEvent) {
	if event.IsFinal {
		b.Text = AppendFinal(b.Text, event.FinalTranscript)
		b.Preview = ""
		return
	}
	b.Preview = event.InterimTranscript
}

// Display returns Text followed by the preview, as shown while speaking.
func (b *TranscriptBuffer) Display() string {
	return AppendFinal(b.Text, b.Preview)
}

// Reset clears both fields.
func (b *TranscriptBuffer) Reset() {
	b.Text = ""
	b.Preview = ""
}

// AppendFinal appends final to buf with exactly one separating space.
func AppendFinal(buf, final string) string {
	final = strings.TrimSpace(final)
	if final == "" {
		return buf
	}
	if buf == "" {
		return final
	}
	return buf + " " + final
}
