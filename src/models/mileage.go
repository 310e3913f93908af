package models

// MileageEntry is one logged business drive. DistanceMiles is either looked up
// through the Mapbox directions service or supplied by the user when the
// lookup is unavailable.
type MileageEntry struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	Date          string  `json:"date"` // ISO date
	FromAddress   string  `json:"from_address"`
	ToAddress     string  `json:"to_address"`
	Purpose       string  `json:"purpose"`
	DistanceMiles float64 `json:"distance_miles"`
	// True when DistanceMiles came from the directions API rather than the user.
	DistanceLookedUp bool   `json:"distance_looked_up"`
	CreatedAt        string `json:"created_at"`
}
