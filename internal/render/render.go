package render

// Markdown renders an assistant reply as styled terminal output. Renderers
// are pooled per option set, so concurrent renders do not contend.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// Reply renders an assistant reply for the chat transcript at the given
// width. When the markup cannot be rendered the stripped plain text is
// returned instead, so the transcript stays readable.
func Reply(content string, width int) string {
	out, err := Markdown(content, DefaultOptions().WithWidth(width))
	if err != nil {
		return Plaintext(content)
	}
	return out
}
