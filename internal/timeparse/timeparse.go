// Package timeparse resolves English and German day and clock-time mentions
// in free text to a concrete point in time.
//
// Recognised day words are today/heute and tomorrow/morgen. Recognised clock
// times, tried in this order, are:
//
//	3pm, 3:30pm, 12 am   12-hour with optional minutes
//	15:00, 09:30         24-hour, exactly two digits on each side
//	3 pm                 12-hour without minutes
//
// German "15 Uhr" is deliberately not recognised.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type clockPattern struct {
	re    *regexp.Regexp
	parse func(m []string) (hour, minute int)
}

var (
	tomorrowWords = regexp.MustCompile(`(?i)\b(tomorrow|morgen)\b`)
	todayWords    = regexp.MustCompile(`(?i)\b(today|heute)\b`)

	clockPatterns = []clockPattern{
		{
			re: regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`),
			parse: func(m []string) (int, int) {
				minute := 0
				if m[2] != "" {
					minute = atoi(m[2])
				}
				return to24h(atoi(m[1]), m[3]), minute
			},
		},
		{
			re: regexp.MustCompile(`\b(\d{2}):(\d{2})\b`),
			parse: func(m []string) (int, int) {
				return atoi(m[1]), atoi(m[2])
			},
		},
		{
			re: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)\b`),
			parse: func(m []string) (int, int) {
				return to24h(atoi(m[1]), m[2]), 0
			},
		},
	}

	// clockMention matches any recognised clock time together with an
	// optional leading "at" or "um".
	clockMention = regexp.MustCompile(`(?i)(?:\b(?:at|um)\s+)?(?:\b\d{1,2}(?::\d{2})?\s*(?:am|pm)\b|\b\d{2}:\d{2}\b)`)
)

// Extract scans text for a day word and a clock time and resolves them
// relative to now. It reports false when neither was found.
//
// A day word alone keeps the clock time of now. A clock time replaces hour
// and minute and zeroes everything below. A result strictly before now is
// moved one day forward, so "3pm" typed at 4pm means 3pm tomorrow.
func Extract(text string, now time.Time) (time.Time, bool) {
	target := now
	hasDay := false

	switch {
	case tomorrowWords.MatchString(text):
		target = now.AddDate(0, 0, 1)
		hasDay = true
	case todayWords.MatchString(text):
		hasDay = true
	}

	hour, minute, hasClock := findClock(text)
	if hasClock {
		target = time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, target.Location())
	}

	if !hasDay && !hasClock {
		return time.Time{}, false
	}

	if target.Before(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target, true
}

// StripClock removes every recognised clock time (and a leading "at"/"um")
// from text. Surrounding whitespace is left for the caller to normalise.
func StripClock(text string) string {
	return clockMention.ReplaceAllString(text, " ")
}

// findClock returns the first valid time of the first pattern that yields one.
func findClock(text string) (hour, minute int, ok bool) {
	for _, p := range clockPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			h, mm := p.parse(m)
			if h >= 0 && h < 24 && mm >= 0 && mm < 60 {
				return h, mm, true
			}
		}
	}
	return 0, 0, false
}

func to24h(hour int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

// atoi is only fed \d{1,2} captures.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
