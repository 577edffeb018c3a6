package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/voxchat/internal/config"
	"github.com/diogo/voxchat/internal/gemini"
	"github.com/diogo/voxchat/internal/models"
	"github.com/diogo/voxchat/internal/render"
	"github.com/diogo/voxchat/internal/session"
	"github.com/diogo/voxchat/internal/speech"
	"github.com/diogo/voxchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive voice chat session",
	Long: `Start an interactive chat session with voice support.

Press Ctrl+T to dictate a message and Ctrl+S to silence the current
reply. Voice input needs ASSEMBLYAI_API_KEY and voice.input_pipe; spoken
replies need DEEPGRAM_API_KEY and voice.output_pipe.

Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	secrets := config.LoadSecrets()

	model := models.ModelFromName(getModel())
	client := gemini.NewClient(secrets.GeminiAPIKey, gemini.WithModel(model))

	provider, cleanup, err := buildSpeechProvider(cfg, secrets)
	if err != nil {
		return err
	}
	defer cleanup()

	events := make(chan session.State, 64)
	alerts := make(chan error, 8)
	sess := session.NewSession(client, provider,
		session.WithNotifier(func(s session.State) {
			select {
			case events <- s:
			default:
			}
		}),
		session.WithAlerts(func(err error) {
			select {
			case alerts <- err:
			default:
			}
		}),
		session.WithSpeechText(render.Plaintext),
		session.WithSpeakReplies(cfg.Voice.SpeakReplies),
	)
	defer sess.Close()

	return tui.RunChat(sess, events, alerts, model.Name)
}

// buildSpeechProvider assembles the host capability provider from the
// configured PCM pipes. Missing pipes or keys leave the matching capability
// unavailable rather than failing the whole session. The input pipe is
// opened per listening session so the recognizer can close it on stop.
func buildSpeechProvider(cfg config.Config, secrets config.Secrets) (speech.Provider, func(), error) {
	speechCfg := speech.Config{
		AssemblyAIKey: secrets.AssemblyAIKey,
		DeepgramKey:   secrets.DeepgramKey,
		Language:      cfg.Voice.Language,
		VoiceModel:    cfg.Voice.VoiceModel,
	}

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if pipe := cfg.Voice.InputPipe; pipe != "" {
		speechCfg.OpenSource = func() (io.ReadCloser, error) {
			return os.Open(pipe)
		}
	}

	if cfg.Voice.OutputPipe != "" {
		out, err := os.OpenFile(cfg.Voice.OutputPipe, os.O_WRONLY, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open voice output pipe %s: %v\n", cfg.Voice.OutputPipe, err)
		} else {
			speechCfg.Sink = speech.NewWriterSink(out)
			closers = append(closers, func() { _ = out.Close() })
		}
	}

	return speech.NewHostProvider(speechCfg), cleanup, nil
}
