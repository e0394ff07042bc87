package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	policy     = bluemonday.UGCPolicy()
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	markdown   = goldmark.New()
)

// Sanitize removes unsafe HTML from the input string using a strict policy.
// It is used for sanitizing user inputs like names, titles and bios.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}

// Escape escapes special characters like "<" to become "&lt;".
func Escape(input string) string {
	return template.HTMLEscapeString(input)
}

// RenderMarkdown converts markdown input (freelancer bios, project
// descriptions) to HTML and sanitizes the result.
func RenderMarkdown(input string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(input), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return policy.Sanitize(buf.String()), nil
}

// ValidateEmail checks that the address has a plausible mailbox@domain shape.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("email address is not valid")
	}
	return nil
}

// Patterns that must not leak through chat messages: the platform keeps
// first contact on-platform until the access fee is paid.
var (
	urlRegex = regexp.MustCompile(
		`(?i)(https?://\S+|www\.\S+|\S+\.(com|org|net|io|co|me|app|dev|tech|ai|ml)\b\S*)`)
	contactRegex = regexp.MustCompile(
		`(?i)(\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b|\b\d{3}[-.]?\d{3}[-.]?\d{4}\b|@[a-z0-9_]{3,})`)
)

const (
	urlPlaceholder     = "[URL REMOVED]"
	contactPlaceholder = "[CONTACT INFO REMOVED]"
)

// FilterResult describes the outcome of filtering one message.
type FilterResult struct {
	Content    string
	Violations []string
	Clean      bool
}

// FilterMessage redacts URLs and contact information from a chat message and
// reports what was removed. The message is still delivered; flagged content
// is kept for moderation.
func FilterMessage(input string) FilterResult {
	res := FilterResult{Content: input, Clean: true}

	if m := urlRegex.FindAllString(res.Content, -1); len(m) > 0 {
		res.Violations = append(res.Violations, "URLs detected: "+strings.Join(m, ", "))
		res.Content = urlRegex.ReplaceAllString(res.Content, urlPlaceholder)
		res.Clean = false
	}

	if m := contactRegex.FindAllString(res.Content, -1); len(m) > 0 {
		res.Violations = append(res.Violations, "Contact information detected: "+strings.Join(m, ", "))
		res.Content = contactRegex.ReplaceAllString(res.Content, contactPlaceholder)
		res.Clean = false
	}

	return res
}

// ContainsViolations is a quick check without rewriting the content.
func ContainsViolations(input string) bool {
	return urlRegex.MatchString(input) || contactRegex.MatchString(input)
}
