package tts

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPlaybackCancelled is returned by Play when Cancel interrupts it.
var ErrPlaybackCancelled = errors.New("playback cancelled")

// DefaultFrameDuration is the amount of audio sent per frame.
const DefaultFrameDuration = 20 * time.Millisecond

// Player streams one utterance's audio to a sink at real-time pace, so that
// pausing stops the listener hearing more audio almost immediately.
type Player struct {
	sink          AudioSink
	frameBytes    int
	frameDuration time.Duration

	mu       sync.Mutex
	resumeCh chan struct{} // non-nil while paused
	done     chan struct{}
	once     sync.Once
}

// NewPlayer creates a player for audio at bytesPerSecond. A zero
// frameDuration writes frames as fast as the sink accepts them.
func NewPlayer(sink AudioSink, bytesPerSecond int, frameDuration time.Duration) *Player {
	frameBytes := int(int64(bytesPerSecond) * int64(DefaultFrameDuration) / int64(time.Second))
	if frameDuration > 0 {
		frameBytes = int(int64(bytesPerSecond) * int64(frameDuration) / int64(time.Second))
	}
	// Keep 16-bit samples whole.
	if frameBytes%2 != 0 {
		frameBytes++
	}
	if frameBytes < 2 {
		frameBytes = 2
	}
	return &Player{
		sink:          sink,
		frameBytes:    frameBytes,
		frameDuration: frameDuration,
		done:          make(chan struct{}),
	}
}

// Play writes data to the sink frame by frame. It returns nil once every
// frame is written, ErrPlaybackCancelled after Cancel, ctx.Err() when ctx
// ends, or the sink's error.
func (p *Player) Play(ctx context.Context, data []byte) error {
	var ticker *time.Ticker
	if p.frameDuration > 0 {
		ticker = time.NewTicker(p.frameDuration)
		defer ticker.Stop()
	}

	for offset := 0; offset < len(data); {
		if err := p.waitWhilePaused(ctx); err != nil {
			return err
		}

		end := offset + p.frameBytes
		if end > len(data) {
			end = len(data)
		}
		if err := p.sink.WriteAudio(data[offset:end]); err != nil {
			return err
		}
		offset = end

		if ticker == nil || offset >= len(data) {
			continue
		}
		select {
		case <-p.done:
			return ErrPlaybackCancelled
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	select {
	case <-p.done:
		return ErrPlaybackCancelled
	default:
		return nil
	}
}

func (p *Player) waitWhilePaused(ctx context.Context) error {
	p.mu.Lock()
	ch := p.resumeCh
	p.mu.Unlock()

	if ch == nil {
		select {
		case <-p.done:
			return ErrPlaybackCancelled
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	select {
	case <-ch:
		return nil
	case <-p.done:
		return ErrPlaybackCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause holds playback before the next frame.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resumeCh == nil {
		p.resumeCh = make(chan struct{})
	}
}

// Resume continues a paused player.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resumeCh != nil {
		close(p.resumeCh)
		p.resumeCh = nil
	}
}

// Paused reports whether the player is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resumeCh != nil
}

// Cancel stops playback for good.
func (p *Player) Cancel() {
	p.once.Do(func() { close(p.done) })
}
