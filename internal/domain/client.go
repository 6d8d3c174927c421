package domain

// Client is an OAuth or server-to-server API client of the matching service.
type Client struct {
	ID                string `json:"id" db:"id"`
	Name              string `json:"name" db:"name"`
	APIKeyHash        string `json:"-" db:"api_key_hash"`
	Tier              string `json:"tier" db:"tier"`
	DefaultMatchLimit int    `json:"default_match_limit" db:"default_match_limit"`
}
