package widget

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/zhouzirui/holdings-chat/internal/model/chat"
)

// RenderMode selects how message text is turned into markup.
type RenderMode string

const (
	// RenderEscape escapes every markup-significant character before mapping newlines.
	RenderEscape RenderMode = "escape"
	// RenderLegacy only maps newlines, leaving any markup in the text live.
	RenderLegacy RenderMode = "legacy"
	// RenderSanitize keeps safe inline markup and strips everything else.
	RenderSanitize RenderMode = "sanitize"
)

const (
	userClass = "message user-message"
	botClass  = "message bot-message"
)

var (
	sanitizePolicy = bluemonday.UGCPolicy()
	stripPolicy    = bluemonday.StrictPolicy()
)

// ParseRenderMode validates a mode name. The empty string selects RenderEscape.
func ParseRenderMode(raw string) (RenderMode, error) {
	switch mode := RenderMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return RenderEscape, nil
	case RenderEscape, RenderLegacy, RenderSanitize:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown render mode %q", raw)
	}
}

// Render maps a message to its container entry. It depends only on origin and text.
func Render(message chat.Message, mode RenderMode) chat.Entry {
	class := botClass
	if message.Origin == chat.User {
		class = userClass
	}

	return chat.Entry{
		MessageID: message.ID,
		Origin:    message.Origin,
		Class:     class,
		HTML:      renderText(message.Text, mode),
	}
}

func renderText(text string, mode RenderMode) string {
	switch mode {
	case RenderLegacy:
	case RenderSanitize:
		text = sanitizePolicy.Sanitize(text)
	default:
		text = html.EscapeString(text)
	}
	return strings.ReplaceAll(text, "\n", "<br>")
}

// PlainText turns an entry's markup back into terminal text: line breaks become
// newlines, remaining tags are stripped and entities decoded.
func PlainText(entry chat.Entry) string {
	text := strings.ReplaceAll(entry.HTML, "<br>", "\n")
	return html.UnescapeString(stripPolicy.Sanitize(text))
}
