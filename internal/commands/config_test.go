package commands

import (
	"strings"
	"testing"

	"github.com/diogo/voxchat/internal/config"
)

func TestConfigCommandStructure(t *testing.T) {
	if configCmd.Use != "config" {
		t.Errorf("Use = %q", configCmd.Use)
	}
	if configCmd.RunE == nil {
		t.Error("RunE should not be nil")
	}

	var hasSet bool
	for _, sub := range configCmd.Commands() {
		if sub.Name() == "set" {
			hasSet = true
		}
	}
	if !hasSet {
		t.Error("Missing 'set' subcommand")
	}
}

func TestSetConfigUpdatesValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		key   string
		value string
		check func(config.Config) bool
	}{
		{"model", "pro", func(c config.Config) bool { return c.DefaultModel == "pro" }},
		{"verbose", "true", func(c config.Config) bool { return c.Verbose }},
		{"clipboard", "true", func(c config.Config) bool { return c.CopyToClipboard }},
		{"speak", "false", func(c config.Config) bool { return !c.Voice.SpeakReplies }},
		{"language", "pt", func(c config.Config) bool { return c.Voice.Language == "pt" }},
		{"voice", "aura-2-orion-en", func(c config.Config) bool { return c.Voice.VoiceModel == "aura-2-orion-en" }},
		{"input_pipe", "/tmp/mic.pcm", func(c config.Config) bool { return c.Voice.InputPipe == "/tmp/mic.pcm" }},
		{"output_pipe", "/tmp/out.pcm", func(c config.Config) bool { return c.Voice.OutputPipe == "/tmp/out.pcm" }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := setConfig(tt.key, tt.value); err != nil {
				t.Fatalf("setConfig(%q, %q) error = %v", tt.key, tt.value, err)
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("Value not persisted for %q", tt.key)
			}
		})
	}
}

func TestSetConfigRejectsInvalidInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "nonsense", "x"},
		{"bad model", "model", "gpt-9"},
		{"bad bool", "verbose", "maybe"},
		{"bad speak", "speak", "loudly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := setConfig(tt.key, tt.value); err == nil {
				t.Errorf("setConfig(%q, %q) expected error", tt.key, tt.value)
			}
		})
	}
}

func TestSetConfigBadModelMentionsChoices(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := setConfig("model", "gpt-9")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "fast") {
		t.Errorf("Error %q should list valid aliases", err.Error())
	}
}
