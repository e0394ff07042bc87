package content

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Hello World", "Hello World"},
		{"HTML tags", "Hello <b>World</b>", "Hello <b>World</b>"},
		{"Script tag", "<script>alert('xss')</script>Hello", "Hello"},
		{"Complex HTML", "<a href='javascript:alert(1)'>Click me</a>", "Click me"},
		{"Emoji", "I am 🤖", "I am 🤖"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"Heading", "# Senior Go Developer", "<h1>Senior Go Developer</h1>"},
		{"Emphasis", "I build *fast* services", "<em>fast</em>"},
		{"List", "- Go\n- Postgres", "<li>Go</li>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderMarkdown(tt.input)
			if err != nil {
				t.Fatalf("RenderMarkdown() error = %v", err)
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("RenderMarkdown() = %q, want it to contain %q", got, tt.contains)
			}
		})
	}

	t.Run("Script stripped", func(t *testing.T) {
		got, err := RenderMarkdown("hello <script>alert(1)</script>")
		if err != nil {
			t.Fatalf("RenderMarkdown() error = %v", err)
		}
		if strings.Contains(got, "<script>") {
			t.Errorf("RenderMarkdown() left script tag in %q", got)
		}
	})
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid", "alice@example.com", false},
		{"Valid subdomain", "bob@mail.example.co", false},
		{"Missing at", "alice.example.com", true},
		{"Missing domain", "alice@", true},
		{"Spaces", "alice @example.com", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateEmail(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilterMessage(t *testing.T) {
	t.Run("Clean message untouched", func(t *testing.T) {
		res := FilterMessage("hey, is the project still available?")
		if !res.Clean {
			t.Errorf("expected clean, got violations %v", res.Violations)
		}
		if res.Content != "hey, is the project still available?" {
			t.Errorf("clean content was rewritten: %q", res.Content)
		}
	})

	t.Run("URL redacted", func(t *testing.T) {
		res := FilterMessage("check https://example.com/portfolio please")
		if res.Clean {
			t.Error("expected violation for URL")
		}
		if !strings.Contains(res.Content, urlPlaceholder) {
			t.Errorf("URL not redacted: %q", res.Content)
		}
		if strings.Contains(res.Content, "example.com") {
			t.Errorf("URL still present: %q", res.Content)
		}
	})

	t.Run("Email redacted", func(t *testing.T) {
		res := FilterMessage("write me at alice@example.org")
		if res.Clean {
			t.Error("expected violation for email")
		}
		if strings.Contains(res.Content, "alice@") {
			t.Errorf("email still present: %q", res.Content)
		}
	})

	t.Run("Phone redacted", func(t *testing.T) {
		res := FilterMessage("call 555-123-4567 tonight")
		if res.Clean {
			t.Error("expected violation for phone number")
		}
		if !strings.Contains(res.Content, contactPlaceholder) {
			t.Errorf("phone not redacted: %q", res.Content)
		}
	})

	t.Run("Violations recorded", func(t *testing.T) {
		res := FilterMessage("see www.example.dev or mail bob@example.net")
		if len(res.Violations) == 0 {
			t.Fatal("expected recorded violations")
		}
	})
}
