package tts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (s *recordingSink) WriteAudio(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, append([]byte(nil), frame...))
	return nil
}

func (s *recordingSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.frames {
		n += len(f)
	}
	return n
}

func TestPlayer_PlaysAllFrames(t *testing.T) {
	sink := &recordingSink{}
	// 1000 bytes/s with 20ms frames gives 20-byte frames.
	p := NewPlayer(sink, 1000, 0)

	if err := p.Play(context.Background(), make([]byte, 50)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if sink.total() != 50 {
		t.Errorf("Expected 50 bytes, got %d", sink.total())
	}
	if len(sink.frames) != 3 {
		t.Errorf("Expected 3 frames, got %d", len(sink.frames))
	}
}

func TestPlayer_Cancel(t *testing.T) {
	sink := &recordingSink{}
	p := NewPlayer(sink, 48000, 5*time.Millisecond)

	go func() {
		time.Sleep(15 * time.Millisecond)
		p.Cancel()
	}()

	err := p.Play(context.Background(), make([]byte, 48000))
	if !errors.Is(err, ErrPlaybackCancelled) {
		t.Fatalf("Expected ErrPlaybackCancelled, got %v", err)
	}
	if sink.total() >= 48000 {
		t.Error("Expected playback to stop early")
	}
}

func TestPlayer_PauseResume(t *testing.T) {
	sink := &recordingSink{}
	p := NewPlayer(sink, 1000, 0)
	p.Pause()
	if !p.Paused() {
		t.Fatal("Expected Paused true")
	}

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background(), make([]byte, 40)) }()

	time.Sleep(20 * time.Millisecond)
	if sink.total() != 0 {
		t.Fatalf("Expected no audio while paused, got %d bytes", sink.total())
	}

	p.Resume()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected playback to finish after resume")
	}
	if sink.total() != 40 {
		t.Errorf("Expected 40 bytes, got %d", sink.total())
	}
}

func TestPlayer_SinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("socket closed")}
	p := NewPlayer(sink, 1000, 0)

	if err := p.Play(context.Background(), make([]byte, 10)); err == nil || err.Error() != "socket closed" {
		t.Errorf("Expected sink error, got %v", err)
	}
}

func TestPlayer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPlayer(&recordingSink{}, 1000, 0)
	if err := p.Play(ctx, make([]byte, 10)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
