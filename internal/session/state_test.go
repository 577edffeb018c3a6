package session

import (
	"testing"

	"github.com/diogo/voxchat/internal/models"
)

func TestApplySubmitStarted(t *testing.T) {
	s := State{Input: "what was our Q3 growth", Listening: true}

	next := Apply(s, SubmitStarted{Text: "what was our Q3 growth"})

	if len(next.Messages) != 1 {
		t.Fatalf("Messages = %d, want 1", len(next.Messages))
	}
	if next.Messages[0].Role != models.RoleUser {
		t.Errorf("Role = %q, want %q", next.Messages[0].Role, models.RoleUser)
	}
	if next.Input != "" {
		t.Errorf("Input = %q, want empty", next.Input)
	}
	if !next.Loading {
		t.Error("Expected Loading true")
	}
}

func TestApplyResponseReceived(t *testing.T) {
	s := State{
		Messages: []models.Message{models.UserMessage("hi")},
		Loading:  true,
	}

	next := Apply(s, ResponseReceived{Text: "hello there"})

	if len(next.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(next.Messages))
	}
	if next.Messages[1].Role != models.RoleAssistant {
		t.Errorf("Role = %q, want %q", next.Messages[1].Role, models.RoleAssistant)
	}
	if next.Messages[1].Content != "hello there" {
		t.Errorf("Content = %q", next.Messages[1].Content)
	}
	if next.Loading {
		t.Error("Expected Loading false")
	}
}

func TestApplyResponseFailedAppendsFallback(t *testing.T) {
	s := State{
		Messages: []models.Message{models.UserMessage("hi")},
		Loading:  true,
	}

	next := Apply(s, ResponseFailed{})

	if len(next.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(next.Messages))
	}
	if next.Messages[1].Content != FallbackText {
		t.Errorf("Content = %q, want %q", next.Messages[1].Content, FallbackText)
	}
	if next.Loading {
		t.Error("Expected Loading false")
	}
}

func TestApplyTranscriptOverwritesInput(t *testing.T) {
	s := State{Input: "typed so far"}

	s = Apply(s, TranscriptReceived{Text: "hello"})
	if s.Input != "hello" {
		t.Errorf("Input = %q, want %q", s.Input, "hello")
	}

	s = Apply(s, TranscriptReceived{Text: "hello world"})
	if s.Input != "hello world" {
		t.Errorf("Input = %q, want %q", s.Input, "hello world")
	}
}

func TestApplyListeningAndSpeakingFlags(t *testing.T) {
	var s State

	s = Apply(s, ListeningStarted{})
	if !s.Listening {
		t.Error("Expected Listening true")
	}
	s = Apply(s, ListeningStopped{})
	if s.Listening {
		t.Error("Expected Listening false")
	}

	s = Apply(s, ListeningStarted{})
	s = Apply(s, RecognitionFailed{})
	if s.Listening {
		t.Error("Expected Listening false after recognition failure")
	}

	s = Apply(s, SpeakingStarted{})
	if !s.Speaking {
		t.Error("Expected Speaking true")
	}
	s = Apply(s, SpeakingStopped{})
	if s.Speaking {
		t.Error("Expected Speaking false")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	orig := State{
		Messages: []models.Message{models.UserMessage("first")},
	}

	next := Apply(orig, ResponseReceived{Text: "reply"})
	next.Messages[0] = models.UserMessage("mutated")

	if orig.Messages[0].Content != "first" {
		t.Error("Apply mutated the input state's message slice")
	}
}

func TestApplyRecognitionFailureKeepsDraft(t *testing.T) {
	s := State{Listening: true}
	s = Apply(s, TranscriptReceived{Text: "partial dicta"})
	s = Apply(s, RecognitionFailed{})

	if s.Input != "partial dicta" {
		t.Errorf("Input = %q, want draft preserved", s.Input)
	}
	if s.Listening {
		t.Error("Expected Listening false")
	}
}
