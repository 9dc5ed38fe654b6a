// Package notice prints localized, user-visible messages: unsupported GPU,
// device acquisition failures and ignored console input.
//
// Messages are keyed by their English text and translated with
// golang.org/x/text/message. English and Russian are supported.
package notice

import (
	"fmt"
	"io"
	"sync"

	locale "github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Each key is also the English text.
const (
	Unsupported     = "GPU rendering is not supported on this system: %v"
	DeviceFailure   = "Could not acquire a GPU device: %v"
	RenderFailure   = "Rendering stopped: %v"
	InputIgnored    = "Ignored %q for %s; keeping %v"
	UnknownCommand  = "Unknown command %q. Type \"help\" for the list of commands."
	SettingsInvalid = "Settings file %s is invalid and was ignored: %v"
	SnapshotWritten = "Snapshot written to %s (%dx%d)"
	Current         = "cells: %d, cell size: %g, wireframe: %v"
	Help            = "Commands: count <2-100>, size <0.02-1.0>, wireframe on|off|toggle, reset, show, help, quit"
)

var russian = map[string]string{
	Unsupported:     "GPU-рендеринг не поддерживается в этой системе: %v",
	DeviceFailure:   "Не удалось получить GPU-устройство: %v",
	RenderFailure:   "Отрисовка остановлена: %v",
	InputIgnored:    "Значение %q для %s проигнорировано; оставлено %v",
	UnknownCommand:  "Неизвестная команда %q. Введите \"help\" для списка команд.",
	SettingsInvalid: "Файл настроек %s повреждён и проигнорирован: %v",
	SnapshotWritten: "Снимок сохранён в %s (%dx%d)",
	Current:         "ячеек: %d, размер ячейки: %g, сетка: %v",
	Help:            "Команды: count <2-100>, size <0.02-1.0>, wireframe on|off|toggle, reset, show, help, quit",
}

// Supported lists the languages with a full catalog, English first.
var Supported = []language.Tag{language.English, language.Russian}

var (
	catalogOnce sync.Once
	messages    *catalog.Builder
	matcher     language.Matcher
)

func buildCatalog() {
	messages = catalog.NewBuilder(catalog.Fallback(language.English))
	for key, ru := range russian {
		// Keys are constants, SetString only fails on malformed tags.
		_ = messages.SetString(language.English, key, key)
		_ = messages.SetString(language.Russian, key, ru)
	}
	matcher = language.NewMatcher(Supported)
}

// Match returns the supported language closest to the given BCP 47 names
// (e.g. "ru", "ru-RU", "en-GB"). Unknown or empty input yields English.
func Match(names ...string) language.Tag {
	catalogOnce.Do(buildCatalog)
	tag, _ := language.MatchStrings(matcher, names...)
	base, _ := tag.Base()
	for _, s := range Supported {
		if b, _ := s.Base(); b == base {
			return s
		}
	}
	return language.English
}

// Notifier writes localized notices to a writer. It is safe for concurrent
// use.
type Notifier struct {
	mu      sync.Mutex
	w       io.Writer
	printer *message.Printer
	tag     language.Tag
}

// New returns a Notifier writing to w in the language matching lang. An
// empty lang falls back to the system locale.
func New(w io.Writer, lang string) *Notifier {
	catalogOnce.Do(buildCatalog)
	names := []string{lang}
	if lang == "" {
		names = SystemLanguage()
	}
	tag := Match(names...)
	return &Notifier{
		w:       w,
		printer: message.NewPrinter(tag, message.Catalog(messages)),
		tag:     tag,
	}
}

// Language returns the language notices are printed in.
func (n *Notifier) Language() language.Tag { return n.tag }

// Sprintf formats the message for key in the notifier's language.
func (n *Notifier) Sprintf(key string, args ...any) string {
	return n.printer.Sprintf(key, args...)
}

// Notify writes one notice line.
func (n *Notifier) Notify(key string, args ...any) {
	msg := n.Sprintf(key, args...)
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, msg)
}

// SystemLanguage returns the user's preferred languages as reported by the
// operating system, or nil when they cannot be determined.
func SystemLanguage() []string {
	names, err := locale.GetLocales()
	if err != nil {
		return nil
	}
	return names
}
