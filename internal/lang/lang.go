package lang

import (
	"fmt"
	"strings"

	pfconfig "github.com/NikitaDmitryuk/polyfetch/internal/config"
	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
)

var lang = "en"

func SetupLang(config *pfconfig.Config) error {
	lang = normalize(config.Lang)
	return nil
}

// normalize reduces locale-style tags such as "ru_RU.UTF-8" to the bare
// language code used as the catalog key.
func normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "_.-"); i > 0 {
		tag = tag[:i]
	}
	if tag == "" {
		return "en"
	}
	return tag
}

func GetMessage(id MessageID, args ...interface{}) string {
	if m, ok := messages[id]; ok {
		if msg, ok := m[lang]; ok {
			return fmt.Sprintf(msg, args...)
		}
		if msg, ok := m["en"]; ok {
			return fmt.Sprintf(msg, args...)
		}
	}
	logutils.Log.Warnf("Message not found for ID: %s", id)
	return "Message not found"
}
