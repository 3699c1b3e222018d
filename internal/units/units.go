package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidUnit is returned for unit states other than Celsius and Fahrenheit.
var ErrInvalidUnit = errors.New("invalid unit state")

// Unit is the temperature unit currently displayed.
type Unit int

const (
	Unknown Unit = iota
	Celsius
	Fahrenheit
)

// Symbol returns the display marker for the unit.
func (u Unit) Symbol() string {
	switch u {
	case Celsius:
		return "℃"
	case Fahrenheit:
		return "℉"
	default:
		return ""
	}
}

func (u Unit) String() string {
	switch u {
	case Celsius:
		return "celsius"
	case Fahrenheit:
		return "fahrenheit"
	default:
		return "unknown"
	}
}

// MarshalText encodes the unit by name for JSON output.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// FromUnitSystem maps the weather service's unit-system flag to the unit its
// temperatures are delivered in.
func FromUnitSystem(system string) (Unit, error) {
	switch system {
	case "metric":
		return Celsius, nil
	case "imperial":
		return Fahrenheit, nil
	}
	return Unknown, fmt.Errorf("unsupported unit system %q", system)
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Toggle converts value from u into the other unit and returns the new unit.
func Toggle(value float64, u Unit) (float64, Unit, error) {
	switch u {
	case Celsius:
		return Round2(value*9/5 + 32), Fahrenheit, nil
	case Fahrenheit:
		return Round2((value - 32) * 5 / 9), Celsius, nil
	}
	return 0, Unknown, fmt.Errorf("toggle from %s: %w", u, ErrInvalidUnit)
}

// DisplayTemperature is the temperature as currently shown. Converted values are
// shown with two decimals; values straight from the service keep their precision.
type DisplayTemperature struct {
	Value     float64 `json:"value"`
	Unit      Unit    `json:"unit"`
	Converted bool    `json:"converted"`
}

// Toggle returns the temperature converted into the other unit.
func (t DisplayTemperature) Toggle() (DisplayTemperature, error) {
	v, u, err := Toggle(t.Value, t.Unit)
	if err != nil {
		return t, err
	}
	return DisplayTemperature{Value: v, Unit: u, Converted: true}, nil
}

// Number formats the value without the unit marker.
func (t DisplayTemperature) Number() string {
	if t.Converted {
		return strconv.FormatFloat(t.Value, 'f', 2, 64)
	}
	return strconv.FormatFloat(t.Value, 'f', -1, 64)
}

func (t DisplayTemperature) String() string {
	return t.Number() + t.Unit.Symbol()
}
