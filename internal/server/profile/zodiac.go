package profile

import "time"

// Sign is one of the twelve western zodiac signs.
type Sign int

const (
	Capricorn Sign = iota
	Aquarius
	Pisces
	Aries
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
)

var signNames = [...]string{
	Capricorn:   "Capricorn",
	Aquarius:    "Aquarius",
	Pisces:      "Pisces",
	Aries:       "Aries",
	Taurus:      "Taurus",
	Gemini:      "Gemini",
	Cancer:      "Cancer",
	Leo:         "Leo",
	Virgo:       "Virgo",
	Libra:       "Libra",
	Scorpio:     "Scorpio",
	Sagittarius: "Sagittarius",
}

func (s Sign) String() string {
	if s < 0 || int(s) >= len(signNames) {
		return "Unknown"
	}
	return signNames[s]
}

// signRange is an inclusive month/day interval. Capricorn wraps the year end.
type signRange struct {
	sign       Sign
	start, end monthDay
}

type monthDay int // month*100 + day

func md(m time.Month, d int) monthDay { return monthDay(int(m)*100 + d) }

var signRanges = [...]signRange{
	{Capricorn, md(time.December, 22), md(time.January, 19)},
	{Aquarius, md(time.January, 20), md(time.February, 18)},
	{Pisces, md(time.February, 19), md(time.March, 20)},
	{Aries, md(time.March, 21), md(time.April, 19)},
	{Taurus, md(time.April, 20), md(time.May, 20)},
	{Gemini, md(time.May, 21), md(time.June, 20)},
	{Cancer, md(time.June, 21), md(time.July, 22)},
	{Leo, md(time.July, 23), md(time.August, 22)},
	{Virgo, md(time.August, 23), md(time.September, 22)},
	{Libra, md(time.September, 23), md(time.October, 22)},
	{Scorpio, md(time.October, 23), md(time.November, 21)},
	{Sagittarius, md(time.November, 22), md(time.December, 21)},
}

func (r signRange) contains(v monthDay) bool {
	if r.start <= r.end {
		return v >= r.start && v <= r.end
	}
	return v >= r.start || v <= r.end
}

// SignOf classifies a calendar date. Only month and day are used; the
// location of t is not converted.
func SignOf(t time.Time) Sign {
	v := md(t.Month(), t.Day())
	for _, r := range signRanges {
		if r.contains(v) {
			return r.sign
		}
	}
	// unreachable: the ranges cover every day of the year
	return Capricorn
}

// Zodiac returns the zodiac sign name for a birthday.
func Zodiac(birthday time.Time) string {
	return SignOf(birthday).String()
}

// Horoscope returns the horoscope for a birthday. It uses the same
// twelve-way classification as Zodiac.
func Horoscope(birthday time.Time) string {
	return SignOf(birthday).String()
}
