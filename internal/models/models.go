package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Coordinates is a geographic position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Valid reports whether the coordinates are within the WGS84 ranges.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Reading is the decoded result of one successful weather query. Temperature is in
// the unit system the query was made with.
type Reading struct {
	LocationLabel string  `json:"location"`
	Temperature   float64 `json:"temperature"`
	Condition     string  `json:"condition"`
	Description   string  `json:"description"`
}

// Lookup outcomes recorded in the audit log.
const (
	OutcomeOK                    = "ok"
	OutcomeLocationUnavailable   = "location_unavailable"
	OutcomeNavigationUnavailable = "navigation_unavailable"
	OutcomeStale                 = "stale"
)

// Lookup is one audited weather lookup attempt.
type Lookup struct {
	ID           int64
	Session      string
	Seq          int64
	Kind         string // "coords" or "place"
	Query        string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	HTTPStatus   sql.NullInt64
	Outcome      string
	Condition    sql.NullString
	ErrorMessage sql.NullString
}
