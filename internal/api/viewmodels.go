package api

import (
	"time"

	"github.com/lox/weatherwidget/internal/models"
	"github.com/lox/weatherwidget/internal/store"
	"github.com/lox/weatherwidget/internal/widget"
)

// DisplayView is the widget display plus the derived fields the page and JSON
// clients render directly.
type DisplayView struct {
	widget.Display
	ShowUnitControls bool   `json:"show_unit_controls"`
	TemperatureText  string `json:"temperature_text"`
	UnitSymbol       string `json:"unit_symbol"`
	Error            string `json:"error,omitempty"`
}

func newDisplayView(d widget.Display) DisplayView {
	return DisplayView{
		Display:          d,
		ShowUnitControls: d.ShowUnitControls(),
		TemperatureText:  d.Temperature.Number(),
		UnitSymbol:       d.Temperature.Unit.Symbol(),
	}
}

// IndexData is everything the page template needs.
type IndexData struct {
	DisplayView
	// Empty is true before the first lookup of a session.
	Empty bool
}

// LookupView is one audit log row as served by /api/lookups.
type LookupView struct {
	ID         int64      `json:"id"`
	Session    string     `json:"session"`
	Seq        int64      `json:"seq"`
	Kind       string     `json:"kind"`
	Query      string     `json:"query"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	HTTPStatus *int64     `json:"http_status,omitempty"`
	Outcome    string     `json:"outcome"`
	Condition  string     `json:"condition,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func newLookupView(l models.Lookup) LookupView {
	v := LookupView{
		ID:        l.ID,
		Session:   l.Session,
		Seq:       l.Seq,
		Kind:      l.Kind,
		Query:     l.Query,
		StartedAt: l.StartedAt,
		Outcome:   l.Outcome,
		Condition: l.Condition.String,
		Error:     l.ErrorMessage.String,
	}
	if l.FinishedAt.Valid {
		t := l.FinishedAt.Time
		v.FinishedAt = &t
	}
	if l.HTTPStatus.Valid {
		code := l.HTTPStatus.Int64
		v.HTTPStatus = &code
	}
	return v
}

// LookupsResponse is the body of /api/lookups.
type LookupsResponse struct {
	Lookups []LookupView          `json:"lookups"`
	Summary []store.LookupSummary `json:"summary,omitempty"`
}

// HealthStatus is the body of /health.
type HealthStatus struct {
	Status        string   `json:"status"`
	Sessions      int      `json:"sessions"`
	AssetsLoaded  int      `json:"assets_loaded"`
	AssetsMissing []string `json:"assets_missing,omitempty"`
	Database      string   `json:"database,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}
