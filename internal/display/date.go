// Package display turns task timestamps into relative, localized labels.
package display

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/existflow/irontrack/internal/model"
)

// Locale selects the language and time zone used for labels
type Locale struct {
	Tag      language.Tag
	Location *time.Location
}

// DefaultLocale is English in the local time zone
func DefaultLocale() Locale {
	return Locale{Tag: language.English, Location: time.Local}
}

// ParseLocale builds a Locale from a BCP 47 tag such as "de" or "fa-IR"
func ParseLocale(tag string, loc *time.Location) (Locale, error) {
	if tag == "" {
		return Locale{Tag: language.English, Location: loc}, nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return Locale{}, fmt.Errorf("invalid locale %q: %w", tag, err)
	}
	return Locale{Tag: parsed, Location: loc}, nil
}

func (l Locale) location() *time.Location {
	if l.Location == nil {
		return time.Local
	}
	return l.Location
}

// DayDiff returns the number of calendar days from now's date to ts's date
// in loc
func DayDiff(ts, now time.Time, loc *time.Location) int {
	y, m, d := ts.In(loc).Date()
	target := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int((target.Unix() - today.Unix()) / 86400)
}

// DateDisplay labels ts relative to now: "Today", "Tomorrow", "<Month><day>,<Weekday>"
// within the current year (spaces removed) or "<Month> <day>, <Year>" otherwise.
// The zero date sentinel must be filtered out by the caller.
func DateDisplay(ts, now time.Time, locale Locale) string {
	loc := locale.location()
	p := printer(locale.Tag)

	switch DayDiff(ts, now, loc) {
	case 0:
		return p.Sprintf("Today")
	case 1:
		return p.Sprintf("Tomorrow")
	}

	local := ts.In(loc)
	month := p.Sprintf(local.Month().String())
	if local.Year() == now.In(loc).Year() {
		label := fmt.Sprintf("%s %2d, %s", month, local.Day(), p.Sprintf(local.Weekday().String()))
		return strings.ReplaceAll(label, " ", "")
	}
	return fmt.Sprintf("%s %2d, %d", month, local.Day(), local.Year())
}

// TaskDate labels the task date, or returns "" when the task has none
func TaskDate(t *model.Task, now time.Time, locale Locale) string {
	ts, ok := t.DateTime(locale.location())
	if !ok {
		return ""
	}
	return DateDisplay(ts, now, locale)
}
