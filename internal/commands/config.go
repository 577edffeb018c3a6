package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/voxchat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show the current configuration, or change a setting with
'config set <key> <value>'.

Keys:
  model            Default model alias (fast, lite, pro)
  verbose          Verbose logging (true/false)
  clipboard        Copy single-query replies to the clipboard (true/false)
  speak            Read assistant replies aloud (true/false)
  language         Speech recognition language code
  voice            Synthesis voice model name
  input_pipe       Path to the PCM capture pipe
  output_pipe      Path to the PCM playback pipe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConfig(args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func showConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	keyStyle := lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	valStyle := lipgloss.NewStyle().Foreground(colorText)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	row := func(key, value string) {
		fmt.Printf("  %s %s\n", keyStyle.Render(key+":"), valStyle.Render(value))
	}

	fmt.Println(dimStyle.Render(path))
	fmt.Println()
	row("model", cfg.DefaultModel)
	row("verbose", strconv.FormatBool(cfg.Verbose))
	row("clipboard", strconv.FormatBool(cfg.CopyToClipboard))
	row("speak", strconv.FormatBool(cfg.Voice.SpeakReplies))
	row("language", cfg.Voice.Language)
	row("voice", cfg.Voice.VoiceModel)
	row("input_pipe", orUnset(cfg.Voice.InputPipe))
	row("output_pipe", orUnset(cfg.Voice.OutputPipe))
	return nil
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func setConfig(key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	switch key {
	case "model":
		valid := false
		for _, m := range config.AvailableModels() {
			if value == m {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown model %q, expected one of: %s",
				value, strings.Join(config.AvailableModels(), ", "))
		}
		cfg.DefaultModel = value
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false")
		}
		cfg.Verbose = b
	case "clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("clipboard must be true or false")
		}
		cfg.CopyToClipboard = b
	case "speak":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("speak must be true or false")
		}
		cfg.Voice.SpeakReplies = b
	case "language":
		cfg.Voice.Language = value
	case "voice":
		cfg.Voice.VoiceModel = value
	case "input_pipe":
		cfg.Voice.InputPipe = value
	case "output_pipe":
		cfg.Voice.OutputPipe = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	successStyle := lipgloss.NewStyle().Foreground(colorSuccess)
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s = %s", key, value)))
	return nil
}
