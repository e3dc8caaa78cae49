// Package profile merges partial profile updates and derives the
// astrological fields from the birthday.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/astroprofile/internal/common"
	"github.com/dmitrijs2005/astroprofile/internal/server/models"
)

// DateLayout is the preferred birthday format.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order for string birthdays.
var dateLayouts = []string{DateLayout, "2006-1-2", "2006/1/2"}

// Attachment references a stored binary (the profile picture). The engine
// never reads its contents.
type Attachment struct {
	Path string
}

// ApplyUpdate shallow-merges update over current and returns the result as
// a new map; current is never modified.
//
// When update carries a non-empty birthday, zodiac and horoscope are
// recomputed from it and override any caller-supplied values. When
// attachment is non-nil, profilePicture is set to its path last.
// An unparseable birthday fails with common.ErrInvalidDate.
func ApplyUpdate(current models.Profile, update map[string]any, attachment *Attachment) (models.Profile, error) {
	merged := current.Clone()
	for k, v := range update {
		merged[k] = v
	}

	if raw, ok := update[common.ProfileKeyBirthday]; ok && !isBlank(raw) {
		birthday, err := ParseBirthday(raw)
		if err != nil {
			return nil, err
		}
		merged[common.ProfileKeyHoroscope] = Horoscope(birthday)
		merged[common.ProfileKeyZodiac] = Zodiac(birthday)
	}

	if attachment != nil {
		merged[common.ProfileKeyProfilePicture] = attachment.Path
	}

	return merged, nil
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// ParseBirthday turns a supplied birthday into a calendar date. Accepted
// strings are year-month-day with "-" or "/" separators (zero padding
// optional) or RFC 3339 timestamps; time.Time is accepted too. The date is
// taken as written with no timezone conversion.
func ParseBirthday(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return dateOf(x), nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return dateOf(t), nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidDate, x)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported birthday type %T", common.ErrInvalidDate, v)
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
