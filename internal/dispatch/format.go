package dispatch

import "strings"

// Legacy Markdown reserves these characters outside of entities.
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

// topicText is sent with Markdown. The topic sits inside the bold entity,
// where escapes are not honoured, so only the closing marker is removed.
func topicText(topic string) string {
	return "*Topic: " + strings.ReplaceAll(topic, "*", "") + "*"
}

func explanationText(explanation string) string {
	return "*Explanation:*\n" + escapeMarkdown(explanation)
}
