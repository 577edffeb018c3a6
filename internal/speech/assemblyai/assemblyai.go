// Package assemblyai streams microphone PCM to the AssemblyAI v3 realtime
// API over a websocket and emits cumulative turn transcripts.
package assemblyai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	voxerrors "github.com/diogo/voxchat/internal/errors"
)

const (
	defaultEndpoint  = "wss://streaming.assemblyai.com/v3/ws"
	sampleRate       = 16000
	encoding         = "pcm_s16le"
	handshakeTimeout = 10 * time.Second
	chunkSize        = 3200 // 100ms of 16kHz 16-bit mono
)

// Recognizer is a continuous speech recognition session backed by the
// AssemblyAI streaming API. Each Turn message carries the full transcript
// accumulated so far, so consumers replace rather than append.
type Recognizer struct {
	apiKey   string
	source   io.Reader
	endpoint string
	language string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	cancel    context.CancelFunc

	transcripts chan string
	errs        chan error
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithLanguage sets the speech_model language hint sent at session start.
func WithLanguage(lang string) Option {
	return func(r *Recognizer) {
		if lang != "" {
			r.language = lang
		}
	}
}

// WithEndpoint overrides the websocket endpoint. Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(r *Recognizer) {
		if endpoint != "" {
			r.endpoint = endpoint
		}
	}
}

// NewRecognizer creates a recognition session that reads 16kHz s16le PCM
// from source. The session does not connect until Start is called. When
// source implements io.Closer it is closed on Stop, which releases an
// audio pump blocked in a quiet read.
func NewRecognizer(apiKey string, source io.Reader, opts ...Option) *Recognizer {
	r := &Recognizer{
		apiKey:      apiKey,
		source:      source,
		endpoint:    defaultEndpoint,
		language:    "en",
		transcripts: make(chan string, 100),
		errs:        make(chan error, 10),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transcripts returns the channel of cumulative transcripts. Every value is
// the complete text recognized so far in the current turn.
func (r *Recognizer) Transcripts() <-chan string { return r.transcripts }

// Errors returns the channel of runtime recognition errors.
func (r *Recognizer) Errors() <-chan error { return r.errs }

// Start dials the streaming endpoint and begins pumping audio. Calling Start
// on an already started session is a no-op.
func (r *Recognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		return nil
	}
	if r.apiKey == "" {
		return voxerrors.NewRecognitionError("AssemblyAI API key is empty", nil)
	}

	params := url.Values{}
	params.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	params.Set("encoding", encoding)
	params.Set("format_turns", "false")
	params.Set("language", r.language)

	wsURL := fmt.Sprintf("%s?%s", r.endpoint, params.Encode())
	headers := map[string][]string{
		"Authorization": {r.apiKey},
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		msg := "failed to connect to recognition service"
		if resp != nil {
			msg = fmt.Sprintf("recognition service refused connection (status %d)", resp.StatusCode)
		}
		return voxerrors.NewRecognitionError(msg, err)
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	r.conn = conn
	r.connected = true
	r.cancel = cancel

	go r.pumpAudio(pumpCtx, conn)
	go r.readMessages(conn)

	return nil
}

// Stop terminates the session and closes the audio source when it supports
// closing. Safe to call multiple times and before Start.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		r.connected = false
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
		if r.conn != nil {
			_ = r.conn.WriteJSON(map[string]string{"type": "Terminate"})
			_ = r.conn.Close()
			r.conn = nil
		}
	}
	if c, ok := r.source.(io.Closer); ok {
		_ = c.Close()
	}
}

// pumpAudio reads PCM chunks from the source and forwards them as binary
// websocket frames until the context is cancelled or the source drains.
func (r *Recognizer) pumpAudio(ctx context.Context, conn *websocket.Conn) {
	buf := make([]byte, chunkSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := r.source.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if werr := conn.WriteMessage(websocket.BinaryMessage, chunk); werr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				r.emitError(voxerrors.NewRecognitionError("audio source read failed", err))
			}
			return
		}
	}
}

type beginMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type turnMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	EndOfTurn  bool   `json:"end_of_turn"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// readMessages consumes server messages until the connection closes.
func (r *Recognizer) readMessages(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			r.mu.Lock()
			active := r.connected
			r.mu.Unlock()
			if active {
				r.emitError(voxerrors.NewRecognitionError("recognition stream closed", err))
			}
			return
		}
		r.processMessage(message)
	}
}

func (r *Recognizer) processMessage(message []byte) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &base); err != nil {
		r.emitError(voxerrors.NewRecognitionError("malformed recognition message", err))
		return
	}

	switch base.Type {
	case "Begin":
		var msg beginMessage
		_ = json.Unmarshal(message, &msg)
	case "Turn":
		var msg turnMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			r.emitError(voxerrors.NewRecognitionError("malformed turn message", err))
			return
		}
		if msg.Transcript != "" {
			select {
			case r.transcripts <- msg.Transcript:
			default:
			}
		}
	case "Termination":
		// server-side session end, nothing to deliver
	case "Error":
		var msg errorMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			r.emitError(voxerrors.NewRecognitionError("malformed error message", err))
			return
		}
		r.emitError(voxerrors.NewRecognitionError(msg.Error, nil))
	}
}

func (r *Recognizer) emitError(err error) {
	select {
	case r.errs <- err:
	default:
	}
}
