package render

import (
	"github.com/diogo/voxchat/internal/config"
)

// OptionsFromConfig maps the markdown section of the user configuration
// onto renderer options. The booleans always apply; an empty style keeps
// the default.
func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()

	md := cfg.Markdown
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	return opts
}
