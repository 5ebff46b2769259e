package lang

import (
	"strings"
	"testing"

	pfconfig "github.com/NikitaDmitryuk/polyfetch/internal/config"
)

func setLang(t *testing.T, tag string) {
	t.Helper()
	if err := SetupLang(&pfconfig.Config{Lang: tag}); err != nil {
		t.Fatalf("SetupLang failed: %v", err)
	}
	t.Cleanup(func() {
		_ = SetupLang(&pfconfig.Config{Lang: "en"})
	})
}

func TestGetMessage_English(t *testing.T) {
	setLang(t, "en")

	got := GetMessage(HTTPPortOpenMsgID, 80)
	if got != "HTTP (Port 80): Open" {
		t.Errorf("Expected 'HTTP (Port 80): Open', got '%s'", got)
	}
}

func TestGetMessage_Russian(t *testing.T) {
	setLang(t, "ru")

	got := GetMessage(CancelledByUserMsgID)
	if got != "Тесты отменены пользователем." {
		t.Errorf("Expected Russian cancellation message, got '%s'", got)
	}
}

func TestGetMessage_FallbackToEnglish(t *testing.T) {
	setLang(t, "de")

	got := GetMessage(NoViableProtocolsMsgID)
	if got != "No valid protocols/schemes detected to test." {
		t.Errorf("Expected English fallback, got '%s'", got)
	}
}

func TestGetMessage_UnknownID(t *testing.T) {
	setLang(t, "en")

	got := GetMessage(MessageID("does_not_exist"))
	if got != "Message not found" {
		t.Errorf("Expected 'Message not found', got '%s'", got)
	}
}

func TestGetMessage_FormatsArguments(t *testing.T) {
	setLang(t, "en")

	got := GetMessage(DownloadRedirectedMsgID, "HTTP/1.1 (Plain)", "https://example.com/")
	if got != "HTTP/1.1 (Plain): Redirected to https://example.com/" {
		t.Errorf("Unexpected formatted message: '%s'", got)
	}
}

func TestNormalize_LocaleStyleTags(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected string
	}{
		{
			name:     "bare code",
			tag:      "ru",
			expected: "ru",
		},
		{
			name:     "posix locale",
			tag:      "ru_RU.UTF-8",
			expected: "ru",
		},
		{
			name:     "bcp47 style",
			tag:      "en-US",
			expected: "en",
		},
		{
			name:     "uppercase",
			tag:      "EN",
			expected: "en",
		},
		{
			name:     "empty defaults to english",
			tag:      "",
			expected: "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.tag); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestAllMessagesHaveEnglish(t *testing.T) {
	for id, m := range messages {
		if _, ok := m["en"]; !ok {
			t.Errorf("Message %s has no English text", id)
		}
	}
}

func TestMessageArgumentsMatchAcrossLanguages(t *testing.T) {
	// Every translation must consume the same verbs as the English text,
	// otherwise Sprintf output degrades for one language only.
	for id, m := range messages {
		enVerbs := strings.Count(m["en"], "%")
		for code, text := range m {
			if strings.Count(text, "%") != enVerbs {
				t.Errorf("Message %s has mismatched format verbs for language %s", id, code)
			}
		}
	}
}
