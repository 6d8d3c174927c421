package domain

import "time"

// MatchCandidate is the transient view of another user that a match query
// ranks against the seed profile.
type MatchCandidate struct {
	UserID     string
	Gender     *Gender
	BirthDate  *time.Time
	Location   *GeoPoint
	Embeddings AxisVectors
}

// MatchResult is one ranked entry returned by a match query.
type MatchResult struct {
	UserID        string    `json:"user_id"`
	Score         float64   `json:"score"`
	Compatibility int       `json:"compatibility"`
	Breakdown     Breakdown `json:"breakdown"`
	DistanceKm    *float64  `json:"distance_km,omitempty"`
}

// CandidateFilter describes the hard eligibility gates of a candidate pool.
// Stores may push any subset of it down to their query layer; Admits is the
// authoritative in-process check.
type CandidateFilter struct {
	ExcludeUserID   string
	ClientID        string
	Scope           string
	AllowedUserIDs  map[string]struct{}
	Genders         []Gender
	MinAge          *int
	MaxAge          *int
	Reference       *GeoPoint
	MaxDistanceKm   *float64
	RequireComplete bool
	Now             time.Time
}

// Admits reports whether c passes every gate except distance, which needs
// the reference point and is applied by the caller after computing it.
func (f *CandidateFilter) Admits(c *MatchCandidate) bool {
	if c == nil || c.UserID == "" || c.UserID == f.ExcludeUserID {
		return false
	}
	if f.AllowedUserIDs != nil {
		if _, ok := f.AllowedUserIDs[c.UserID]; !ok {
			return false
		}
	}
	if f.RequireComplete && !c.Embeddings.Complete() {
		return false
	}
	if len(f.Genders) > 0 {
		if c.Gender == nil || !containsGender(f.Genders, *c.Gender) {
			return false
		}
	}
	if f.MinAge != nil || f.MaxAge != nil {
		if c.BirthDate == nil {
			return false
		}
		age := AgeAt(*c.BirthDate, f.Now)
		if f.MinAge != nil && age < *f.MinAge {
			return false
		}
		if f.MaxAge != nil && age > *f.MaxAge {
			return false
		}
	}
	return true
}

func containsGender(list []Gender, g Gender) bool {
	for _, x := range list {
		if x == g {
			return true
		}
	}
	return false
}
