package stt

import "testing"

func TestAppendFinal(t *testing.T) {
	tests := []struct {
		buf, final, want string
	}{
		{"", "hello", "hello"},
		{"", "  hello  ", "hello"},
		{"hello", "world", "hello world"},
		{"hello", "   ", "hello"},
		{"hello", "", "hello"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := AppendFinal(tt.buf, tt.final); got != tt.want {
			t.Errorf("AppendFinal(%q, %q): expected %q, got %q", tt.buf, tt.final, tt.want, got)
		}
	}
}

func TestTranscriptBuffer_Apply(t *testing.T) {
	var b TranscriptBuffer

	b.Apply(RecognitionEvent{InterimTranscript: "hel"})
	if b.Text != "" || b.Preview != "hel" {
		t.Errorf("Expected preview only, got %+v", b)
	}

	b.Apply(RecognitionEvent{FinalTranscript: "hello", InterimTranscript: "wo", IsFinal: true})
	if b.Text != "hello" || b.Preview != "" {
		t.Errorf("Expected committed text and cleared preview, got %+v", b)
	}

	b.Apply(RecognitionEvent{InterimTranscript: "world"})
	if b.Display() != "hello world" {
		t.Errorf("Expected display 'hello world', got %q", b.Display())
	}

	b.Apply(RecognitionEvent{FinalTranscript: "world", IsFinal: true})
	if b.Text != "hello world" {
		t.Errorf("Expected 'hello world', got %q", b.Text)
	}

	b.Reset()
	if b.Text != "" || b.Preview != "" {
		t.Errorf("Expected empty buffer after reset, got %+v", b)
	}
}
