// Package stream serves the voice websocket: microphone audio and capture
// control flow in, transcript events and synthesized speech flow out.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lexiqai/reader-gateway/internal/audio"
	"github.com/lexiqai/reader-gateway/internal/config"
	"github.com/lexiqai/reader-gateway/internal/locale"
	"github.com/lexiqai/reader-gateway/internal/observability"
	"github.com/lexiqai/reader-gateway/internal/speech"
	"github.com/lexiqai/reader-gateway/internal/stt"
	"github.com/lexiqai/reader-gateway/internal/tts"
)

const (
	writeTimeout   = 5 * time.Second
	maxMessageSize = 1 << 20
)

var errClientClosed = errors.New("client closed the stream")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are left to the fronting proxy.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// SynthesizerFactory builds a synthesizer that plays into sink. It returns
// nil when synthesis is not configured.
type SynthesizerFactory func(sink tts.AudioSink) tts.Synthesizer

// Dependencies are shared by every stream.
type Dependencies struct {
	Config         *config.Config
	Recognizer     stt.Recognizer
	NewSynthesizer SynthesizerFactory

	// BaseContext, when set, ends every stream once it is done. Hijacked
	// connections are not closed by http.Server.Shutdown.
	BaseContext context.Context
}

// Handler upgrades the request and runs a Session until the client leaves.
func Handler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		session := NewSession(conn, deps)
		observability.StreamOpened()
		defer observability.StreamClosed()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		if deps.BaseContext != nil {
			stop := context.AfterFunc(deps.BaseContext, cancel)
			defer stop()
		}

		if err := session.Run(ctx); err != nil {
			session.logger.Warn().Err(err).Msg("Voice stream ended with error")
			return
		}
		session.logger.Info().Msg("Voice stream closed")
	}
}

// Session is one browser connection. It owns a capture controller, a
// playback controller, and the transcript the user is building.
type Session struct {
	id     string
	conn   *websocket.Conn
	logger zerolog.Logger

	capture  *stt.Capture
	playback *tts.Playback

	staged     *audio.RingBuffer
	audioReady chan struct{}

	writeMu sync.Mutex

	mu         sync.Mutex
	transcript stt.TranscriptBuffer
}

// NewSession wires a connection to fresh controllers.
func NewSession(conn *websocket.Conn, deps Dependencies) *Session {
	cfg := deps.Config
	id := observability.NewCorrelationID()
	logger := observability.WithCorrelationID(id).With().Str("component", "stream").Logger()
	resolver := locale.NewResolver(cfg.DefaultLocale)

	s := &Session{
		id:         id,
		conn:       conn,
		logger:     logger,
		staged:     audio.NewRingBuffer(cfg.AudioBufferSize),
		audioReady: make(chan struct{}, 1),
	}

	s.capture = stt.NewCapture(deps.Recognizer,
		stt.WithResolver(resolver),
		stt.WithCaptureLogger(logger.With().Str("component", "capture").Logger()),
	)

	var synth tts.Synthesizer
	if deps.NewSynthesizer != nil {
		synth = deps.NewSynthesizer(tts.AudioSinkFunc(s.writeAudio))
	}
	s.playback = tts.NewPlayback(synth,
		tts.WithPlaybackResolver(resolver),
		tts.WithPlaybackLogger(logger.With().Str("component", "playback").Logger()),
		tts.WithErrorHook(s.onPlaybackError),
	)
	return s
}

// ID returns the session's correlation id.
func (s *Session) ID() string {
	return s.id
}

// Transcript returns a copy of the current transcript buffer.
func (s *Session) Transcript() stt.TranscriptBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Run serves the connection until the client disconnects or ctx ends.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	s.conn.SetReadLimit(maxMessageSize)
	s.logger.Info().Msg("Voice stream opened")

	g.Go(func() error { return s.readLoop(ctx) })
	g.Go(func() error { return s.pumpAudio(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		// Unblock readLoop.
		s.conn.SetReadDeadline(time.Now())
		return nil
	})

	err := g.Wait()

	s.playback.StopAll()
	if err := s.capture.Stop(); err != nil {
		s.logger.Debug().Err(err).Msg("Capture stop on close failed")
	}

	if errors.Is(err, errClientClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("websocket read: %w", err)
			}
			return errClientClosed
		}

		switch msgType {
		case websocket.BinaryMessage:
			if evicted := s.staged.Write(data); evicted > 0 {
				s.logger.Warn().Int("evicted", evicted).Msg("Audio buffer full, dropped oldest audio")
			}
			select {
			case s.audioReady <- struct{}{}:
			default:
			}
		case websocket.TextMessage:
			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				s.logger.Error().Err(err).Msg("Failed to parse client message")
				s.sendError("", "invalid message")
				continue
			}
			s.handleControl(ctx, msg)
		}
	}
}

// pumpAudio forwards staged microphone audio to the capture session. Audio
// that arrives while not listening is discarded.
func (s *Session) pumpAudio(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.audioReady:
		}

		chunk := s.staged.Drain()
		if len(chunk) == 0 || !s.capture.IsListening() {
			continue
		}
		if err := s.capture.SendAudio(chunk); err != nil && !errors.Is(err, stt.ErrNotListening) {
			s.logger.Warn().Err(err).Msg("Failed to forward audio")
		}
	}
}

func (s *Session) handleControl(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case TypeCaptureStart:
		s.staged.Reset()
		s.capture.Start(ctx, msg.Language, captureListener{s})

	case TypeCaptureStop:
		if err := s.capture.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Capture stop failed")
		}

	case TypeCaptureError:
		code := msg.Code
		if code == "" {
			code = speech.CodeAudioCapture
		}
		s.capture.Interrupt(&speech.PlatformError{Code: code, Message: msg.Message})

	case TypeInputSet:
		s.mu.Lock()
		s.transcript.Text = msg.Text
		s.transcript.Preview = ""
		s.mu.Unlock()

	case TypePlaybackToggle:
		section := msg.Section
		err := s.playback.Toggle(section, msg.Text, msg.Language, func() {
			s.send(ServerMessage{Type: TypePlaybackEnd, Section: section})
		})
		if err != nil {
			s.sendSpeechError(TypeError, err)
		}
		s.sendPlaybackState()

	case TypePlaybackStop:
		s.playback.StopAll()
		s.sendPlaybackState()

	default:
		s.logger.Warn().Str("type", msg.Type).Msg("Unknown client message")
		s.sendError("", fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *Session) onPlaybackError(section string, err error) {
	s.sendSpeechError(TypeError, err)
	s.sendPlaybackState()
}

func (s *Session) sendPlaybackState() {
	state, section := s.playback.State()
	s.send(ServerMessage{Type: TypePlaybackState, Section: section, State: state.String()})
}

func (s *Session) sendSpeechError(msgType string, err error) {
	var se *speech.Error
	if errors.As(err, &se) {
		s.send(ServerMessage{Type: msgType, Kind: se.Kind.String(), Message: speech.UserMessage(se.Kind)})
		return
	}
	s.send(ServerMessage{Type: msgType, Message: err.Error()})
}

func (s *Session) sendError(kind, message string) {
	s.send(ServerMessage{Type: TypeError, Kind: kind, Message: message})
}

func (s *Session) send(msg ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug().Err(err).Str("type", msg.Type).Msg("Failed to send message")
	}
}

func (s *Session) writeAudio(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("write audio frame: %w", err)
	}
	return nil
}

// captureListener relays capture events to the client.
type captureListener struct {
	s *Session
}

func (l captureListener) OnResult(event stt.RecognitionEvent) {
	s := l.s
	s.mu.Lock()
	s.transcript.Apply(event)
	buf := s.transcript
	s.mu.Unlock()

	s.send(ServerMessage{
		Type:    TypeTranscript,
		Final:   event.FinalTranscript,
		Interim: event.InterimTranscript,
		IsFinal: event.IsFinal,
		Text:    buf.Text,
		Preview: buf.Preview,
	})
}

func (l captureListener) OnError(err error) {
	l.s.mu.Lock()
	l.s.transcript.Preview = ""
	l.s.mu.Unlock()
	l.s.sendSpeechError(TypeCaptureError, speech.Normalize(err))
}

func (l captureListener) OnEnd() {
	s := l.s
	s.mu.Lock()
	s.transcript.Preview = ""
	text := s.transcript.Text
	s.mu.Unlock()
	s.send(ServerMessage{Type: TypeCaptureEnd, Text: text})
}
