package chat

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CapabilityName identifies a capability (or the user) as a message author.
type CapabilityName string

const (
	User            CapabilityName = "user"
	MediaValidator  CapabilityName = "MediaValidator"
	MetadataAnalyst CapabilityName = "MetadataAnalyst"
	ContentAnalyst  CapabilityName = "ContentAnalyst"
)

func (n CapabilityName) String() string { return string(n) }

// Role separates seeds from capability output.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Outcome records whether the turn that produced a message succeeded.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Message is one transcript entry.
type Message struct {
	Author    CapabilityName
	Role      Role
	Content   string
	Outcome   Outcome
	JobSeq    int
	CreatedAt time.Time
}

// Failed reports whether the turn behind the message ended in an error.
func (m Message) Failed() bool { return m.Outcome == OutcomeFailed }

const separator = " > "

// FormatContent renders body with the author prefix used throughout the transcript.
func FormatContent(author CapabilityName, body string) string {
	return strings.ToUpper(string(author)) + separator + strings.TrimSpace(body)
}

// ParseAuthor splits content produced by FormatContent. ok is false when the
// content carries no prefix.
func ParseAuthor(content string) (author string, body string, ok bool) {
	idx := strings.Index(content, separator)
	if idx <= 0 {
		return "", content, false
	}
	head := content[:idx]
	if strings.ContainsAny(head, " \n\t") {
		return "", content, false
	}
	return head, content[idx+len(separator):], true
}

// DisplayName renders an author for headings, e.g. "User" for the seed author.
func DisplayName(name CapabilityName) string {
	if name == "" {
		return "Unknown"
	}
	if strings.ToLower(string(name)) == string(name) {
		return cases.Title(language.Und).String(string(name))
	}
	return string(name)
}
