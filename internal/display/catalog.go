package display

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Persian is the language the app originally shipped with
var Persian = language.Persian

var translations = map[language.Tag]map[string]string{
	language.German: {
		"Today":    "Heute",
		"Tomorrow": "Morgen",
		"January":  "Januar", "February": "Februar", "March": "März", "April": "April",
		"May": "Mai", "June": "Juni", "July": "Juli", "August": "August",
		"September": "September", "October": "Oktober", "November": "November", "December": "Dezember",
		"Sunday": "Sonntag", "Monday": "Montag", "Tuesday": "Dienstag", "Wednesday": "Mittwoch",
		"Thursday": "Donnerstag", "Friday": "Freitag", "Saturday": "Samstag",
	},
	Persian: {
		"Today":    "امروز",
		"Tomorrow": "فردا",
		"January":  "ژانویه", "February": "فوریه", "March": "مارس", "April": "آوریل",
		"May": "مه", "June": "ژوئن", "July": "ژوئیه", "August": "اوت",
		"September": "سپتامبر", "October": "اکتبر", "November": "نوامبر", "December": "دسامبر",
		"Sunday": "یکشنبه", "Monday": "دوشنبه", "Tuesday": "سه‌شنبه", "Wednesday": "چهارشنبه",
		"Thursday": "پنجشنبه", "Friday": "جمعه", "Saturday": "شنبه",
	},
}

var messages = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, table := range translations {
		for key, msg := range table {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// printer returns a printer for tag. Keys are English text, so an
// untranslated key prints as itself.
func printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}
