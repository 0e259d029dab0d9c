// Package normalize turns free-form time-of-day and cadence text into
// canonical values.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/julianstephens/habitline/internal/constants"
	apperrors "github.com/julianstephens/habitline/internal/errors"
	"github.com/julianstephens/habitline/internal/models"
)

// DefaultTime is returned when nothing else matches.
var DefaultTime = models.CanonicalTime{Hour: 8, Minute: 0}

var vocabulary = map[string]models.CanonicalTime{
	"early morning": {Hour: 6},
	"dawn":          {Hour: 6},
	"sunrise":       {Hour: 6, Minute: 30},
	"morning":       {Hour: 7},
	"breakfast":     {Hour: 7, Minute: 30},
	"mid morning":   {Hour: 10},
	"midmorning":    {Hour: 10},
	"noon":          {Hour: 12},
	"midday":        {Hour: 12},
	"lunch":         {Hour: 12},
	"lunchtime":     {Hour: 12},
	"after lunch":   {Hour: 13},
	"afternoon":     {Hour: 15},
	"after work":    {Hour: 17, Minute: 30},
	"evening":       {Hour: 18},
	"dinner":        {Hour: 18, Minute: 30},
	"night":         {Hour: 20},
	"bedtime":       {Hour: 21, Minute: 30},
	"before bed":    {Hour: 21, Minute: 30},
}

// Filler words that precede the time phrase in conversational answers.
var fillerPrefixes = []string{"at ", "around ", "about ", "in the ", "every ", "each "}

var (
	re12 = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s*m\.?$`)
	re24 = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)
)

// Time resolves free text to a canonical time of day. It never fails:
// unparseable input yields DefaultTime plus a warning the caller must surface.
func Time(raw string) (models.CanonicalTime, apperrors.ParseWarning) {
	return TimeWithDefault(raw, DefaultTime)
}

// TimeWithDefault is Time with a caller-supplied fallback.
func TimeWithDefault(raw string, fallback models.CanonicalTime) (models.CanonicalTime, apperrors.ParseWarning) {
	if t, ok := Parse(raw); ok {
		return t, ""
	}
	return fallback, apperrors.ParseWarning(fmt.Sprintf(
		"could not understand time %q, defaulted to %s", raw, fallback))
}

// Parse is the strict form of Time: it reports whether the text matched
// the vocabulary, a 12-hour pattern or a 24-hour pattern.
func Parse(raw string) (models.CanonicalTime, bool) {
	s := clean(raw)
	if s == "" {
		return models.CanonicalTime{}, false
	}

	if t, ok := vocabulary[s]; ok {
		return t, true
	}
	s = stripFillers(s)
	if t, ok := vocabulary[s]; ok {
		return t, true
	}

	if m := re12.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || min > 59 {
			return models.CanonicalTime{}, false
		}
		if m[3] == "p" && h != 12 {
			h += 12
		} else if m[3] == "a" && h == 12 {
			h = 0
		}
		return models.CanonicalTime{Hour: h, Minute: min}, true
	}

	if m := re24.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		if h > 23 || min > 59 {
			return models.CanonicalTime{}, false
		}
		return models.CanonicalTime{Hour: h, Minute: min}, true
	}

	return models.CanonicalTime{}, false
}

// ParseCanonical parses an already-canonical HH:MM string.
func ParseCanonical(s string) (models.CanonicalTime, error) {
	if m := re24.FindStringSubmatch(strings.TrimSpace(s)); m != nil && m[2] != "" {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h <= 23 && min <= 59 {
			return models.CanonicalTime{Hour: h, Minute: min}, nil
		}
	}
	return models.CanonicalTime{}, fmt.Errorf("invalid time %q (expected %s)", s, constants.TimeFormat)
}

func stripFillers(s string) string {
	for {
		trimmed := s
		for _, prefix := range fillerPrefixes {
			trimmed = strings.TrimPrefix(trimmed, prefix)
		}
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func clean(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Cadence canonicalizes cadence text: lower-case, trim, internal whitespace
// collapsed to underscores, then checked against the enumerated set.
func Cadence(raw string) (models.Cadence, error) {
	s := strings.Join(strings.Fields(strings.ToLower(raw)), "_")
	c := models.Cadence(s)
	if !c.Valid() {
		allowed := make([]string, len(models.Cadences))
		for i, v := range models.Cadences {
			allowed[i] = string(v)
		}
		return "", &apperrors.ValidationError{Field: "cadence", Value: raw, Allowed: allowed}
	}
	return c, nil
}
