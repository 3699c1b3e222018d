package widget

import (
	"errors"
	"time"

	"github.com/lox/weatherwidget/internal/condition"
	"github.com/lox/weatherwidget/internal/units"
)

var (
	ErrNavigationUnavailable = errors.New("navigation capabilities are currently unavailable")
	ErrLocationUnavailable   = errors.New("data about entered location is unavailable")
	// ErrNoReading is returned when toggling units with no reading on display.
	ErrNoReading = errors.New("no reading on display")
)

// FailureKind identifies which failure visual is on display.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNavigation
	FailureLocation
)

// ErrorLabel replaces the location label on every failure display.
const ErrorLabel = "Error..."

// Message returns the user-facing text for the failure.
func (k FailureKind) Message() string {
	switch k {
	case FailureNavigation:
		return "Navigation capabilities are currently unavailable."
	case FailureLocation:
		return "Data about entered location is unavailable."
	default:
		return ""
	}
}

func (k FailureKind) String() string {
	switch k {
	case FailureNavigation:
		return "navigation_unavailable"
	case FailureLocation:
		return "location_unavailable"
	default:
		return "none"
	}
}

// MarshalText encodes the failure kind by name for JSON output.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Err returns the sentinel error for the failure, or nil.
func (k FailureKind) Err() error {
	switch k {
	case FailureNavigation:
		return ErrNavigationUnavailable
	case FailureLocation:
		return ErrLocationUnavailable
	default:
		return nil
	}
}

// Display is everything the rendering surface needs to draw the widget.
type Display struct {
	Seq         uint64                   `json:"seq"`
	Ready       bool                     `json:"ready"`
	Failure     FailureKind              `json:"failure"`
	Background  string                   `json:"background"`
	Icon        string                   `json:"icon"`
	Label       string                   `json:"label"`
	Condition   string                   `json:"condition,omitempty"`
	Temperature units.DisplayTemperature `json:"temperature"`
	Description string                   `json:"description"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// ShowUnitControls reports whether the temperature and unit toggle are visible.
func (d Display) ShowUnitControls() bool {
	return d.Ready && d.Failure == FailureNone
}

func failureDisplay(kind FailureKind, base units.Unit) Display {
	pair := condition.UnavailablePair()
	if kind == FailureNavigation {
		pair = condition.CompassPair()
	}
	return Display{
		Failure:     kind,
		Background:  pair.Background,
		Icon:        pair.Icon,
		Label:       ErrorLabel,
		Temperature: units.DisplayTemperature{Value: 0, Unit: base},
		Description: kind.Message(),
	}
}
