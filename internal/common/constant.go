package common

const (
	// AuthorizationHeaderName carries the bearer credential on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"
)

// Reserved profile keys.
const (
	ProfileKeyBirthday       = "birthday"
	ProfileKeyHoroscope      = "horoscope"
	ProfileKeyZodiac         = "zodiac"
	ProfileKeyProfilePicture = "profilePicture"
)
