// Package session holds the conversation state of a voice chat and the
// orchestration that drives it: submit a turn, stream voice input into the
// draft, speak replies back. State transitions are pure so they can be
// tested without wiring any capability.
package session

import (
	"github.com/diogo/voxchat/internal/models"
)

// FallbackText is appended as the assistant reply when a turn fails for any
// reason, transport or response shape alike.
const FallbackText = "Failed to fetch response. Please try again."

// State is an immutable snapshot of the conversation.
type State struct {
	// Messages is the append-only transcript of completed turns.
	Messages []models.Message
	// Input is the draft text, typed or dictated.
	Input string
	// Loading is true while a submitted turn awaits its reply.
	Loading bool
	// Listening is true while voice recognition is active.
	Listening bool
	// Speaking is true while a reply is being voiced.
	Speaking bool
}

// Event is a state transition trigger. Implementations are the only way
// state changes.
type Event interface {
	isEvent()
}

// InputChanged replaces the draft text with what the user typed.
type InputChanged struct{ Text string }

// TranscriptReceived replaces the draft with the cumulative recognition
// transcript. Each event carries everything recognized so far, not a delta.
type TranscriptReceived struct{ Text string }

// SubmitStarted records the user turn and marks the reply as pending.
type SubmitStarted struct{ Text string }

// ResponseReceived records the assistant reply for the pending turn.
type ResponseReceived struct{ Text string }

// ResponseFailed records the fixed fallback reply for the pending turn.
type ResponseFailed struct{}

// ListeningStarted marks voice recognition active.
type ListeningStarted struct{}

// ListeningStopped marks voice recognition inactive.
type ListeningStopped struct{}

// RecognitionFailed marks recognition inactive after a runtime error.
type RecognitionFailed struct{}

// SpeakingStarted marks voice output active.
type SpeakingStarted struct{}

// SpeakingStopped marks voice output inactive.
type SpeakingStopped struct{}

func (InputChanged) isEvent()       {}
func (TranscriptReceived) isEvent() {}
func (SubmitStarted) isEvent()      {}
func (ResponseReceived) isEvent()   {}
func (ResponseFailed) isEvent()     {}
func (ListeningStarted) isEvent()   {}
func (ListeningStopped) isEvent()   {}
func (RecognitionFailed) isEvent()  {}
func (SpeakingStarted) isEvent()    {}
func (SpeakingStopped) isEvent()    {}

// Apply computes the next state for an event. The input state is never
// mutated; message slices are copied on append.
func Apply(s State, e Event) State {
	switch ev := e.(type) {
	case InputChanged:
		s.Input = ev.Text
	case TranscriptReceived:
		s.Input = ev.Text
	case SubmitStarted:
		s.Messages = appendMessage(s.Messages, models.UserMessage(ev.Text))
		s.Input = ""
		s.Loading = true
	case ResponseReceived:
		s.Messages = appendMessage(s.Messages, models.AssistantMessage(ev.Text))
		s.Loading = false
	case ResponseFailed:
		s.Messages = appendMessage(s.Messages, models.AssistantMessage(FallbackText))
		s.Loading = false
	case ListeningStarted:
		s.Listening = true
	case ListeningStopped:
		s.Listening = false
	case RecognitionFailed:
		s.Listening = false
	case SpeakingStarted:
		s.Speaking = true
	case SpeakingStopped:
		s.Speaking = false
	}
	return s
}

func appendMessage(msgs []models.Message, m models.Message) []models.Message {
	out := make([]models.Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}
