package vipps

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// The coercers take the (value, ok) pair returned by claims.Set lookups so a
// lookup can be passed straight through: ParseBool(set.FindFirst(claims.EmailVerified)).

// ParseString returns value, or "" when the claim was absent.
func ParseString(value string, ok bool) string {
	if !ok {
		return ""
	}
	return value
}

// ParseBool returns true only for the literal "true" (case-insensitive, surrounding
// whitespace ignored). Absent, malformed and "false" all yield false.
func ParseBool(value string, ok bool) bool {
	return ok && strings.EqualFold(strings.TrimSpace(value), "true")
}

// ParseDate parses value with the Norwegian date profile. Absent or unparsable
// values yield the zero time.
func ParseDate(value string, ok bool) time.Time {
	return NorwegianDates.ParseClaim(value, ok)
}

// DateProfile is a locale's set of accepted date layouts. Months maps the
// locale's lower-case month names and abbreviations; values using them are
// rewritten to English names before the layouts are tried.
type DateProfile struct {
	Locale  language.Tag
	Layouts []string
	Months  map[string]time.Month
}

var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ISODates accepts only ISO 8601 forms. It is the fallback for locales
// without a profile of their own.
var ISODates = DateProfile{
	Locale:  language.English,
	Layouts: isoLayouts,
}

// NorwegianDates accepts ISO dates (what Vipps sends for birthdate) as well as
// the dd.MM.yyyy and "17. mai 1990" forms used in Norway.
var NorwegianDates = DateProfile{
	Locale: language.Norwegian,
	Layouts: append(append([]string(nil), isoLayouts...),
		"2.1.2006",
		"2.1.2006 15:04:05",
		"2.1.2006 15:04",
		"2. January 2006",
		"2 January 2006",
		"2. January 2006 15:04",
	),
	Months: map[string]time.Month{
		"januar": time.January, "jan": time.January,
		"februar": time.February, "feb": time.February,
		"mars": time.March, "mar": time.March,
		"april": time.April, "apr": time.April,
		"mai": time.May,
		"juni": time.June, "jun": time.June,
		"juli": time.July, "jul": time.July,
		"august": time.August, "aug": time.August,
		"september": time.September, "sep": time.September, "sept": time.September,
		"oktober": time.October, "okt": time.October,
		"november": time.November, "nov": time.November,
		"desember": time.December, "des": time.December,
	},
}

// dateLocales lists the supported tags; the first entry is the fallback.
var dateLocales = []struct {
	tag     language.Tag
	profile DateProfile
}{
	{language.English, ISODates},
	{language.Norwegian, NorwegianDates},
	{language.MustParse("nb"), NorwegianDates},
	{language.MustParse("nn"), NorwegianDates},
}

var dateMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(dateLocales))
	for i, l := range dateLocales {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// DateProfileFor returns the profile best matching the preferred tags, in
// order of preference. Unsupported locales get ISODates.
func DateProfileFor(preferred ...language.Tag) DateProfile {
	_, i, confidence := dateMatcher.Match(preferred...)
	if confidence == language.No || i < 0 || i >= len(dateLocales) {
		return ISODates
	}
	return dateLocales[i].profile
}

// ParseClaim is Parse for a (value, ok) claim lookup.
func (p DateProfile) ParseClaim(value string, ok bool) time.Time {
	if !ok {
		return time.Time{}
	}
	return p.Parse(value)
}

// Parse tries each layout in order. Values without a zone are read as UTC wall
// time; values with an offset keep it. No conversion to local time happens.
func (p DateProfile) Parse(value string) time.Time {
	value = p.englishMonths(strings.TrimSpace(value))
	if value == "" {
		return time.Time{}
	}
	for _, layout := range p.Layouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (p DateProfile) englishMonths(value string) string {
	if len(p.Months) == 0 {
		return value
	}
	fields := strings.Fields(value)
	changed := false
	for i, f := range fields {
		if m, ok := p.Months[strings.ToLower(strings.TrimSuffix(f, "."))]; ok {
			fields[i] = m.String()
			changed = true
		}
	}
	if !changed {
		return value
	}
	return strings.Join(fields, " ")
}
