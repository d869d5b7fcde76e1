// Package translate formats user-facing messages for the host locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FALLBACK_LOCALE is used when the host reports no locale.
const FALLBACK_LOCALE = "en-US"

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("chip8: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{FALLBACK_LOCALE}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// Use replaces the active printer with one for the given BCP 47 tag.
func Use(tag string) (err error) {
	lang, err := language.Parse(tag)
	if err != nil {
		return
	}

	printer = message.NewPrinter(lang)
	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
