package widget

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/weatherwidget/internal/models"
)

// Locator provides the user's position or reports that it is unavailable.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// CoordinateLocator returns a position reported by the client.
type CoordinateLocator models.Coordinates

func (l CoordinateLocator) Locate(context.Context) (models.Coordinates, error) {
	c := models.Coordinates(l)
	if !c.Valid() {
		return c, fmt.Errorf("coordinates %s out of range: %w", c, ErrNavigationUnavailable)
	}
	return c, nil
}

// DeniedLocator reports that geolocation was refused or is not supported.
type DeniedLocator struct {
	Reason string
}

func (l DeniedLocator) Locate(context.Context) (models.Coordinates, error) {
	if l.Reason == "" {
		return models.Coordinates{}, ErrNavigationUnavailable
	}
	return models.Coordinates{}, fmt.Errorf("%s: %w", l.Reason, ErrNavigationUnavailable)
}

// ParseLocator builds a locator from form values reported by the browser. Missing
// or malformed coordinates count as unavailable navigation.
func ParseLocator(lat, lon, denied string) Locator {
	if denied != "" {
		return DeniedLocator{Reason: "geolocation denied: " + denied}
	}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err1 != nil || err2 != nil {
		return DeniedLocator{Reason: "geolocation missing coordinates"}
	}
	return CoordinateLocator{Lat: la, Lon: lo}
}
