// Package classify decides whether sanitized chat input is a todo, a
// reminder or a note, and strips the trigger words from the stored text.
package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/timeparse"
)

// Trigger sets, English and German. Matching is case-insensitive.
var (
	TodoTriggers     = []string{"todo", "td", "t", "aufgabe"}
	ReminderTriggers = []string{"remind", "reminder", "rm", "r", "erinnere", "erinnerung", "erinnern"}
	DayWords         = []string{"today", "heute", "tomorrow", "morgen"}
)

var (
	todoSet     = toSet(TodoTriggers)
	reminderSet = toSet(ReminderTriggers)
	daySet      = toSet(DayWords)
)

// Result is the outcome of classifying one input.
type Result struct {
	Type models.MessageType
	Text string
}

// Classify assigns a message type to sanitized text and returns the text to
// store.
//
//   - A todo trigger as the first word makes a todo; the trigger is dropped.
//   - Otherwise any reminder trigger word anywhere makes a reminder; trigger
//     words with their bound particles, day words and clock times are
//     removed.
//   - Anything else is a note and keeps its text.
//
// Words are whitespace-separated tokens compared case-insensitively as a
// whole, so "r" inside "reddit.com/r/golang" or "R&D" is not a trigger.
//
// The first character of the result is upper-cased when it is lower-case.
func Classify(text string) Result {
	words := strings.Fields(text)

	res := Result{Type: models.TypeNote, Text: text}

	switch {
	case len(words) > 0 && todoSet[strings.ToLower(words[0])]:
		res.Type = models.TypeTodo
		res.Text = strings.Join(words[1:], " ")

	case containsToken(words, reminderSet):
		res.Type = models.TypeReminder
		res.Text = strings.Join(strings.Fields(timeparse.StripClock(stripReminderWords(words))), " ")
	}

	res.Text = capitalize(strings.TrimSpace(res.Text))
	return res
}

// stripReminderWords drops reminder triggers with their bound particles
// ("remind me to", "erinnere mich an zu") and day words.
func stripReminderWords(words []string) string {
	kept := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		w := strings.ToLower(words[i])
		switch {
		case reminderSet[w]:
			i += boundParticles(words[i+1:])
		case daySet[w]:
		default:
			kept = append(kept, words[i])
		}
	}
	return strings.Join(kept, " ")
}

// boundParticles reports how many leading words of rest belong to the
// preceding trigger: me [to], to, mich [an] [zu], an [zu], zu.
func boundParticles(rest []string) int {
	at := func(i int) string {
		if i < len(rest) {
			return strings.ToLower(rest[i])
		}
		return ""
	}

	switch at(0) {
	case "me":
		if at(1) == "to" {
			return 2
		}
		return 1
	case "to", "zu":
		return 1
	case "an":
		if at(1) == "zu" {
			return 2
		}
		return 1
	case "mich":
		n := 1
		if at(n) == "an" {
			n++
		}
		if at(n) == "zu" {
			n++
		}
		return n
	}
	return 0
}

func containsToken(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

// capitalize upper-cases only the first rune.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
