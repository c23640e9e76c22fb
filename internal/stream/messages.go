package stream

// Client → server control message types. Microphone audio arrives as binary
// frames of 16-bit little-endian mono PCM at CAPTURE_SAMPLE_RATE.
const (
	TypeCaptureStart   = "capture.start"   // language
	TypeCaptureStop    = "capture.stop"    //
	TypeCaptureError   = "capture.error"   // code, message: failure in the browser audio source
	TypeInputSet       = "input.set"       // text: the user edited the input field
	TypePlaybackToggle = "playback.toggle" // section, text, language
	TypePlaybackStop   = "playback.stop"   //
)

// Server → client message types. Synthesized audio is sent as binary frames
// in the configured playback encoding.
const (
	TypeTranscript    = "transcript"
	TypeCaptureEnd    = "capture.end"
	TypePlaybackState = "playback.state"
	TypePlaybackEnd   = "playback.end"
	TypeError         = "error"
)

// ClientMessage is a control message from the browser.
type ClientMessage struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	Text     string `json:"text,omitempty"`
	Section  string `json:"section,omitempty"`
}

// ServerMessage is a control message to the browser. Only the fields that
// belong to Type are set.
type ServerMessage struct {
	Type string `json:"type"`

	// transcript
	Final   string `json:"final,omitempty"`
	Interim string `json:"interim,omitempty"`
	IsFinal bool   `json:"is_final,omitempty"`
	Text    string `json:"text,omitempty"`
	Preview string `json:"preview,omitempty"`

	// capture.error, error
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`

	// playback.state, playback.end
	Section string `json:"section,omitempty"`
	State   string `json:"state,omitempty"`
}
