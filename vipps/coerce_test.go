package vipps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestParseBool(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want bool
	}{
		{"true", true, true},
		{"True", true, true},
		{" TRUE ", true, true},
		{"false", true, false},
		{"yes", true, false},
		{"1", true, false},
		{"", true, false},
		{"tru", true, false},
		{"true", false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseBool(tc.in, tc.ok), "%q ok=%v", tc.in, tc.ok)
	}
}

func TestParseString(t *testing.T) {
	assert.Equal(t, "Ola", ParseString("Ola", true))
	assert.Equal(t, "", ParseString("ignored", false))
}

func TestParseDate(t *testing.T) {
	may17 := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"1990-05-17", may17},
		{" 1990-05-17 ", may17},
		{"17.05.1990", may17},
		{"17.5.1990", may17},
		{"1990-05-17T00:00:00", may17},
		{"1990-05-17 13:45:00", time.Date(1990, 5, 17, 13, 45, 0, 0, time.UTC)},
		{"17.05.1990 13:45", time.Date(1990, 5, 17, 13, 45, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"05/17/1990", time.Time{}},
		{"1990-13-01", time.Time{}},
		{"not a date", time.Time{}},
	}
	for _, tc := range cases {
		assert.True(t, tc.want.Equal(ParseDate(tc.in, true)), "%q", tc.in)
	}

	assert.True(t, ParseDate("1990-05-17", false).IsZero())
}

func TestParseDate_KeepsOffset(t *testing.T) {
	got := ParseDate("1990-05-17T00:30:00+02:00", true)
	_, offset := got.Zone()
	assert.Equal(t, 2*3600, offset)
	assert.Equal(t, 17, got.Day())
}

func TestNorwegianDates_MonthNames(t *testing.T) {
	may17 := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"17. mai 1990", "17 mai 1990", "17. Mai 1990", "17.  mai 1990"} {
		assert.True(t, may17.Equal(NorwegianDates.Parse(in)), in)
	}
	assert.True(t, time.Date(2001, 10, 3, 0, 0, 0, 0, time.UTC).Equal(NorwegianDates.Parse("3. okt. 2001")))
	assert.True(t, time.Date(2000, 1, 1, 12, 30, 0, 0, time.UTC).Equal(NorwegianDates.Parse("1. januar 2000 12:30")))
	assert.True(t, NorwegianDates.Parse("17. maybe 1990").IsZero())
	assert.True(t, ISODates.Parse("17. mai 1990").IsZero())
}

func TestDateProfileFor(t *testing.T) {
	cases := []struct {
		in   string
		want language.Tag
	}{
		{"no", language.Norwegian},
		{"nb", language.Norwegian},
		{"nn", language.Norwegian},
		{"nb-NO", language.Norwegian},
		{"en", language.English},
		{"ja", language.English},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DateProfileFor(language.MustParse(tc.in)).Locale, tc.in)
	}
	assert.Equal(t, language.Norwegian, DateProfileFor(language.Japanese, language.MustParse("nb")).Locale)
	assert.Equal(t, language.English, DateProfileFor().Locale)
}
