package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/diogo/voxchat/internal/models"
	"github.com/diogo/voxchat/internal/render"
	"github.com/diogo/voxchat/internal/speech"

	voxerrors "github.com/diogo/voxchat/internal/errors"
)

type fakeInferencer struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   []string
	release chan struct{}
}

func (f *fakeInferencer) Generate(ctx context.Context, userText string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, userText)
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	return f.reply, f.err
}

func (f *fakeInferencer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestSession(infer *fakeInferencer, provider speech.Provider, opts ...Option) *Session {
	if provider == nil {
		provider = &speech.FakeProvider{
			RecErr:   voxerrors.NewCapabilityError(voxerrors.CapabilityRecognition, "unavailable"),
			SynthErr: voxerrors.NewCapabilityError(voxerrors.CapabilitySynthesis, "unavailable"),
		}
	}
	return NewSession(infer, provider, opts...)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSubmitEmptyIsIgnored(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	sess := newTestSession(infer, nil)
	defer sess.Close()

	sess.Submit(context.Background(), "")
	sess.Submit(context.Background(), "   \t\n")

	if infer.callCount() != 0 {
		t.Errorf("Generate called %d times, want 0", infer.callCount())
	}
	if got := sess.State(); len(got.Messages) != 0 || got.Loading {
		t.Errorf("State changed on empty submit: %+v", got)
	}
}

func TestSubmitWhileLoadingIsIgnored(t *testing.T) {
	release := make(chan struct{})
	infer := &fakeInferencer{reply: "reply", release: release}
	sess := newTestSession(infer, nil)
	defer sess.Close()

	done := make(chan struct{})
	go func() {
		sess.Submit(context.Background(), "first question")
		close(done)
	}()

	waitFor(t, func() bool { return sess.State().Loading }, "First submit never started loading")

	sess.Submit(context.Background(), "second question")

	close(release)
	<-done

	if infer.callCount() != 1 {
		t.Errorf("Generate called %d times, want 1", infer.callCount())
	}
	msgs := sess.State().Messages
	if len(msgs) != 2 {
		t.Fatalf("Messages = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "first question" {
		t.Errorf("User message = %q", msgs[0].Content)
	}
}

func TestSubmitSuccessAppendsBothTurns(t *testing.T) {
	infer := &fakeInferencer{reply: "Q3 growth was 12%."}
	synth := speech.NewFakeSynthesizer()
	provider := &speech.FakeProvider{
		RecErr: voxerrors.NewCapabilityError(voxerrors.CapabilityRecognition, "unavailable"),
		Synth:  synth,
	}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	sess.Submit(context.Background(), "What was our Q3 growth?")

	got := sess.State()
	if got.Loading {
		t.Error("Expected Loading false after reply")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != models.RoleUser || got.Messages[0].Content != "What was our Q3 growth?" {
		t.Errorf("User turn = %+v", got.Messages[0])
	}
	if got.Messages[1].Role != models.RoleAssistant || got.Messages[1].Content != "Q3 growth was 12%." {
		t.Errorf("Assistant turn = %+v", got.Messages[1])
	}

	spoken := synth.SpokenTexts()
	if len(spoken) != 1 || spoken[0] != "Q3 growth was 12%." {
		t.Errorf("SpokenTexts = %v", spoken)
	}
	if !sess.State().Speaking {
		t.Error("Expected Speaking true while utterance plays")
	}
}

func TestSubmitFailureAppendsFallbackAndSpeaksIt(t *testing.T) {
	infer := &fakeInferencer{err: errors.New("connection refused")}
	synth := speech.NewFakeSynthesizer()
	provider := &speech.FakeProvider{
		RecErr: voxerrors.NewCapabilityError(voxerrors.CapabilityRecognition, "unavailable"),
		Synth:  synth,
	}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	sess.Submit(context.Background(), "hello?")

	got := sess.State()
	if got.Loading {
		t.Error("Expected Loading false after failure")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[1].Content != FallbackText {
		t.Errorf("Assistant turn = %q, want fallback", got.Messages[1].Content)
	}

	spoken := synth.SpokenTexts()
	if len(spoken) != 1 || spoken[0] != FallbackText {
		t.Errorf("SpokenTexts = %v, want the fallback spoken", spoken)
	}
}

func TestSubmitStopsListeningFirst(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	rec := speech.NewFakeRecognizer()
	provider := &speech.FakeProvider{
		Rec:      rec,
		SynthErr: voxerrors.NewCapabilityError(voxerrors.CapabilitySynthesis, "unavailable"),
	}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	if err := sess.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}
	rec.EmitTranscript("what was our Q3 growth")
	waitFor(t, func() bool { return sess.State().Input == "what was our Q3 growth" },
		"Transcript never reached the draft")

	sess.Submit(context.Background(), sess.State().Input)

	got := sess.State()
	if got.Listening {
		t.Error("Expected Listening false after submit")
	}
	if rec.StopCalls == 0 {
		t.Error("Expected recognizer Stop to be called")
	}
	if got.Input != "" {
		t.Errorf("Input = %q, want cleared", got.Input)
	}
	if len(got.Messages) != 2 {
		t.Errorf("Messages = %d, want 2", len(got.Messages))
	}
}

func TestCumulativeTranscriptOverwritesDraft(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	rec := speech.NewFakeRecognizer()
	provider := &speech.FakeProvider{
		Rec:      rec,
		SynthErr: voxerrors.NewCapabilityError(voxerrors.CapabilitySynthesis, "unavailable"),
	}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	sess.SetInput("typed earlier")
	if err := sess.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}

	rec.EmitTranscript("hello")
	waitFor(t, func() bool { return sess.State().Input == "hello" }, "First transcript not applied")

	rec.EmitTranscript("hello world")
	waitFor(t, func() bool { return sess.State().Input == "hello world" }, "Second transcript not applied")
}

func TestToggleListeningCapabilityErrorLeavesStateUntouched(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	sess := newTestSession(infer, nil)
	defer sess.Close()

	err := sess.ToggleListening(context.Background())
	if !errors.Is(err, voxerrors.ErrRecognitionUnavailable) {
		t.Errorf("Expected ErrRecognitionUnavailable, got %v", err)
	}
	if got := sess.State(); got.Listening || len(got.Messages) != 0 || got.Input != "" {
		t.Errorf("State changed on capability error: %+v", got)
	}
}

func TestToggleListeningStartsAndStops(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	rec := speech.NewFakeRecognizer()
	provider := &speech.FakeProvider{
		Rec:      rec,
		SynthErr: voxerrors.NewCapabilityError(voxerrors.CapabilitySynthesis, "unavailable"),
	}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	if err := sess.ToggleListening(context.Background()); err != nil {
		t.Fatalf("ToggleListening() error = %v", err)
	}
	if !sess.State().Listening {
		t.Error("Expected Listening true")
	}

	if err := sess.ToggleListening(context.Background()); err != nil {
		t.Fatalf("ToggleListening() error = %v", err)
	}
	if sess.State().Listening {
		t.Error("Expected Listening false")
	}
}

func TestRecognitionRuntimeErrorStopsListening(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	rec := speech.NewFakeRecognizer()
	provider := &speech.FakeProvider{
		Rec:      rec,
		SynthErr: voxerrors.NewCapabilityError(voxerrors.CapabilitySynthesis, "unavailable"),
	}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	if err := sess.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}
	rec.EmitTranscript("partial dicta")
	waitFor(t, func() bool { return sess.State().Input == "partial dicta" }, "Transcript not applied")

	rec.EmitError(voxerrors.NewRecognitionError("stream dropped", nil))
	waitFor(t, func() bool { return !sess.State().Listening }, "Listening never cleared")

	if got := sess.State().Input; got != "partial dicta" {
		t.Errorf("Input = %q, want draft preserved after failure", got)
	}
	if rec.StopCalls == 0 {
		t.Error("Expected recognizer Stop on runtime failure")
	}
}

func TestStopsAreIdempotent(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	synth := speech.NewFakeSynthesizer()
	rec := speech.NewFakeRecognizer()
	provider := &speech.FakeProvider{Rec: rec, Synth: synth}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	sess.StopListening()
	sess.StopListening()
	sess.StopSpeaking()
	sess.StopSpeaking()

	if got := sess.State(); got.Listening || got.Speaking {
		t.Errorf("Flags set after idempotent stops: %+v", got)
	}

	sess.Submit(context.Background(), "speak this")
	if !sess.State().Speaking {
		t.Fatal("Expected Speaking true")
	}

	sess.StopSpeaking()
	sess.StopSpeaking()

	if sess.State().Speaking {
		t.Error("Expected Speaking false")
	}
	if synth.StopCalls < 2 {
		t.Errorf("StopCalls = %d, want at least 2", synth.StopCalls)
	}
}

func TestNewReplyReplacesPriorUtterance(t *testing.T) {
	infer := &fakeInferencer{reply: "first reply"}
	synth := speech.NewFakeSynthesizer()
	provider := &speech.FakeProvider{
		RecErr: voxerrors.NewCapabilityError(voxerrors.CapabilityRecognition, "unavailable"),
		Synth:  synth,
	}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	sess.Submit(context.Background(), "one")
	infer.mu.Lock()
	infer.reply = "second reply"
	infer.mu.Unlock()
	sess.Submit(context.Background(), "two")

	spoken := synth.SpokenTexts()
	if len(spoken) != 2 || spoken[1] != "second reply" {
		t.Errorf("SpokenTexts = %v", spoken)
	}
	if !sess.State().Speaking {
		t.Error("Expected Speaking true while second utterance plays")
	}

	// first utterance finishing late must not clear the speaking flag
	synth.Finish(nil)
	waitFor(t, func() bool { return sess.State().Speaking }, "Speaking cleared by stale completion")

	synth.Finish(nil)
	waitFor(t, func() bool { return !sess.State().Speaking }, "Speaking never cleared")
}

// eagerSynthesizer reports completion on Done before Speak returns.
type eagerSynthesizer struct {
	mu     sync.Mutex
	spoken []string
	done   chan error
}

func newEagerSynthesizer() *eagerSynthesizer {
	return &eagerSynthesizer{done: make(chan error, 4)}
}

func (s *eagerSynthesizer) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	s.done <- nil
	time.Sleep(20 * time.Millisecond)
	return nil
}

func (s *eagerSynthesizer) Stop()              {}
func (s *eagerSynthesizer) Done() <-chan error { return s.done }

func TestFastCompletionStillClearsSpeaking(t *testing.T) {
	infer := &fakeInferencer{reply: "done already"}
	synth := newEagerSynthesizer()
	provider := &speech.FakeProvider{
		RecErr: voxerrors.NewCapabilityError(voxerrors.CapabilityRecognition, "unavailable"),
		Synth:  synth,
	}
	sess := newTestSession(infer, provider)
	defer sess.Close()

	sess.Submit(context.Background(), "quick one")
	waitFor(t, func() bool { return !sess.State().Speaking },
		"Speaking stuck after an utterance that completed before Speak returned")

	// the in-flight counter must not wedge later utterances either
	sess.Submit(context.Background(), "another")
	waitFor(t, func() bool { return !sess.State().Speaking },
		"Speaking stuck after a second fast utterance")
}

func TestSpeakErrorClearsSpeaking(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	synth := speech.NewFakeSynthesizer()
	synth.SpeakErr = voxerrors.NewSynthesisError("engine rejected the request", nil)
	provider := &speech.FakeProvider{
		RecErr: voxerrors.NewCapabilityError(voxerrors.CapabilityRecognition, "unavailable"),
		Synth:  synth,
	}
	var mu sync.Mutex
	var alerted []error
	sess := newTestSession(infer, provider, WithAlerts(func(err error) {
		mu.Lock()
		alerted = append(alerted, err)
		mu.Unlock()
	}))
	defer sess.Close()

	sess.Submit(context.Background(), "hello")

	if sess.State().Speaking {
		t.Error("Speaking left set after synthesis failure")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(alerted) != 1 {
		t.Fatalf("Alerts = %d, want 1", len(alerted))
	}
	var synthErr *voxerrors.SynthesisError
	if !errors.As(alerted[0], &synthErr) {
		t.Errorf("Alert = %v, want a SynthesisError", alerted[0])
	}
}

func TestSynthesisCapabilityErrorIsAlerted(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	var mu sync.Mutex
	var alerted []error
	sess := newTestSession(infer, nil, WithAlerts(func(err error) {
		mu.Lock()
		alerted = append(alerted, err)
		mu.Unlock()
	}))
	defer sess.Close()

	sess.Submit(context.Background(), "speak up")

	mu.Lock()
	defer mu.Unlock()
	if len(alerted) != 1 {
		t.Fatalf("Alerts = %d, want 1", len(alerted))
	}
	if !errors.Is(alerted[0], voxerrors.ErrSynthesisUnavailable) {
		t.Errorf("Alert = %v, want ErrSynthesisUnavailable", alerted[0])
	}
	if sess.State().Speaking {
		t.Error("Speaking set without a synthesizer")
	}
}

func TestSpeakRepliesDisabled(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	synth := speech.NewFakeSynthesizer()
	provider := &speech.FakeProvider{
		RecErr: voxerrors.NewCapabilityError(voxerrors.CapabilityRecognition, "unavailable"),
		Synth:  synth,
	}
	sess := newTestSession(infer, provider, WithSpeakReplies(false))
	defer sess.Close()

	sess.Submit(context.Background(), "quiet please")

	if len(synth.SpokenTexts()) != 0 {
		t.Errorf("SpokenTexts = %v, want none", synth.SpokenTexts())
	}
	if sess.State().Speaking {
		t.Error("Expected Speaking false")
	}
}

func TestSpeechTextTransformApplied(t *testing.T) {
	infer := &fakeInferencer{reply: "**Bold** `growth` figures"}
	synth := speech.NewFakeSynthesizer()
	provider := &speech.FakeProvider{
		RecErr: voxerrors.NewCapabilityError(voxerrors.CapabilityRecognition, "unavailable"),
		Synth:  synth,
	}
	sess := newTestSession(infer, provider, WithSpeechText(render.Plaintext))
	defer sess.Close()

	sess.Submit(context.Background(), "report")

	spoken := synth.SpokenTexts()
	if len(spoken) != 1 || spoken[0] != "Bold growth figures" {
		t.Errorf("SpokenTexts = %v, want markdown stripped", spoken)
	}
	msgs := sess.State().Messages
	if msgs[1].Content != "**Bold** `growth` figures" {
		t.Errorf("Transcript content = %q, want raw markdown kept", msgs[1].Content)
	}
}

func TestNotifierSeesEveryTransition(t *testing.T) {
	infer := &fakeInferencer{reply: "reply"}
	var mu sync.Mutex
	var snapshots []State
	sess := newTestSession(infer, nil, WithNotifier(func(s State) {
		mu.Lock()
		snapshots = append(snapshots, s)
		mu.Unlock()
	}))
	defer sess.Close()

	sess.SetInput("hi")
	sess.Submit(context.Background(), "hi")

	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) < 3 {
		t.Fatalf("Notifier saw %d transitions, want at least 3", len(snapshots))
	}
	last := snapshots[len(snapshots)-1]
	if len(last.Messages) != 2 || last.Loading {
		t.Errorf("Final snapshot = %+v", last)
	}
}
