package chat

import (
	"regexp"
	"strings"
)

// mentionPattern matches the inline mention token the platform embeds in
// message text, e.g. "<@uid:superhero2>".
var mentionPattern = regexp.MustCompile(`<@(uid|all):([^>]*)>`)

// MentionsToMarkdown replaces mention tokens in text with a bold @name
// suitable for glamour rendering. names maps uid to display name; unknown
// uids fall back to the uid itself.
func MentionsToMarkdown(text string, names map[string]string) string {
	if !strings.Contains(text, "<@") {
		return text
	}
	return mentionPattern.ReplaceAllStringFunc(text, func(tok string) string {
		m := mentionPattern.FindStringSubmatch(tok)
		if m[1] == "all" {
			return "**@all**"
		}
		uid := m[2]
		if uid == "" {
			return tok
		}
		name := names[uid]
		if name == "" {
			name = uid
		}
		return "**@" + escapeMarkdown(name) + "**"
	})
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
