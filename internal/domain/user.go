package domain

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// User carries the demographic attributes the matching engine filters on.
// Users are owned by the identity provider; this service only reads them.
type User struct {
	ID        string     `json:"id" db:"id"`
	Gender    *Gender    `json:"gender" db:"gender"`
	BirthDate *time.Time `json:"birth_date" db:"birth_date"`
	Location  *GeoPoint  `json:"location,omitempty"`
}

// AgeAt returns the age in whole years at the given instant.
func AgeAt(birthDate, now time.Time) int {
	age := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() || (now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		age--
	}
	return age
}
