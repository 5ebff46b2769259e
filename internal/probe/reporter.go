package probe

import (
	"fmt"

	"github.com/NikitaDmitryuk/polyfetch/internal/lang"
	"github.com/NikitaDmitryuk/polyfetch/internal/ui"
)

// Reporter receives one line per capability check outcome.
type Reporter interface {
	Header(id lang.MessageID, args ...any)
	Success(id lang.MessageID, args ...any)
	Warn(id lang.MessageID, args ...any)
	Failure(id lang.MessageID, args ...any)
}

// ConsoleReporter prints colorized capability lines to stdout.
type ConsoleReporter struct{}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

func (*ConsoleReporter) Header(id lang.MessageID, args ...any) {
	fmt.Println()
	fmt.Println(ui.HeaderStyle.Render(lang.GetMessage(id, args...)))
}

func (*ConsoleReporter) Success(id lang.MessageID, args ...any) {
	fmt.Println(ui.SuccessStyle.Render(lang.GetMessage(id, args...)))
}

func (*ConsoleReporter) Warn(id lang.MessageID, args ...any) {
	fmt.Println(ui.WarnStyle.Render(lang.GetMessage(id, args...)))
}

func (*ConsoleReporter) Failure(id lang.MessageID, args ...any) {
	fmt.Println(ui.ErrorStyle.Render(lang.GetMessage(id, args...)))
}
