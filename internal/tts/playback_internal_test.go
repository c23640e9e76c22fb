package tts

import "testing"

func TestPlayback_TransitionTable(t *testing.T) {
	legal := map[[2]PlaybackState]bool{
		{PlaybackIdle, PlaybackSpeaking}:   true,
		{PlaybackSpeaking, PlaybackPaused}: true,
		{PlaybackPaused, PlaybackSpeaking}: true,
		{PlaybackSpeaking, PlaybackIdle}:   true,
		{PlaybackPaused, PlaybackIdle}:     true,
	}
	states := []PlaybackState{PlaybackIdle, PlaybackSpeaking, PlaybackPaused}
	for _, from := range states {
		for _, to := range states {
			p := NewPlayback(nil)
			p.state = from
			err := p.transition(to)
			if legal[[2]PlaybackState{from, to}] != (err == nil) {
				t.Errorf("%s -> %s: unexpected result %v", from, to, err)
			}
		}
	}
}
