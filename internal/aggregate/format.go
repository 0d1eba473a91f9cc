package aggregate

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DisplayLanguage is the locale amounts are grouped in by default
var DisplayLanguage = language.Vietnamese

// FormatAmount groups the digits of an amount the way the given locale does
func FormatAmount(amount int64, tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("%d", amount)
}
