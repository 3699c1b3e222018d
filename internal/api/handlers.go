package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lox/weatherwidget/internal/imagegen"
	"github.com/lox/weatherwidget/internal/widget"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	d := sess.widget.Display()

	data := IndexData{
		DisplayView: newDisplayView(d),
		Empty:       d.Seq == 0,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("api: template error: %v", err)
	}
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	loc := widget.ParseLocator(r.FormValue("lat"), r.FormValue("lon"), r.FormValue("denied"))
	d := sess.widget.Locate(r.Context(), loc)
	s.respond(w, r, d, nil)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	d := sess.widget.Search(r.Context(), r.FormValue("q"))
	s.respond(w, r, d, nil)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	d, err := sess.widget.ToggleUnit()
	s.respond(w, r, d, err)
}

func (s *Server) handleAPIDisplay(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	writeJSON(w, http.StatusOK, newDisplayView(sess.widget.Display()))
}

// respond answers a state-changing POST. Browsers are redirected back to the page;
// clients asking for JSON get the display directly.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, d widget.Display, err error) {
	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	view := newDisplayView(d)
	status := http.StatusOK
	if err != nil {
		view.Error = err.Error()
		status = http.StatusConflict
		if !errors.Is(err, widget.ErrNoReading) {
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, view)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func (s *Server) handleAPILookups(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "lookup log disabled"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	lookups, err := s.deps.Store.RecentLookups(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	resp := LookupsResponse{Lookups: make([]LookupView, 0, len(lookups))}
	for _, l := range lookups {
		resp.Lookups = append(resp.Lookups, newLookupView(l))
	}

	if v := r.URL.Query().Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be positive"})
			return
		}
		resp.Summary, err = s.deps.Store.GetLookupSummary(days)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	a, ok := s.deps.Assets.Get("images/" + r.PathValue("path"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(a.Data)
}

// handleCard serves a share image of the session's current display.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	d := sess.widget.Display()
	// Toggling changes the temperature without a new seq, so the shown value is part of the key.
	key := fmt.Sprintf("%s:%d:%s", sess.id, d.Seq, d.Temperature)

	if data, ok := s.cards.Get(key); ok {
		serveCard(w, data)
		return
	}

	cardData := imagegen.CardData{
		Label:       d.Label,
		Description: d.Description,
	}
	if d.ShowUnitControls() {
		cardData.Temperature = d.Temperature.String()
	}
	if d.Seq == 0 {
		cardData.Label = "Weather"
	}

	var (
		data []byte
		err  error
	)
	if bg, ok := s.deps.Assets.Get(d.Background); ok {
		var icon []byte
		if ic, ok := s.deps.Assets.Get(d.Icon); ok {
			icon = ic.Data
		}
		data, err = imagegen.RenderCard(bg.Data, icon, cardData)
		if err != nil {
			log.Printf("api: render card for %s: %v", d.Background, err)
		}
	}
	if data == nil {
		data, err = imagegen.RenderFallbackCard(cardData)
		if err != nil {
			log.Printf("api: render fallback card: %v", err)
			http.Error(w, "Failed to render card", http.StatusInternalServerError)
			return
		}
	}

	s.cards.Set(key, data)
	serveCard(w, data)
}

func serveCard(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:        "ok",
		Sessions:      s.sessions.len(),
		AssetsLoaded:  s.deps.Assets.Len(),
		AssetsMissing: s.deps.Missing,
	}

	if s.deps.Store != nil {
		health.Database = "ok"
		if err := s.deps.Store.Ping(); err != nil {
			health.Database = "error"
			health.Errors = append(health.Errors, "database: "+err.Error())
		}
	}
	if len(health.AssetsMissing) > 0 || len(health.Errors) > 0 {
		health.Status = "degraded"
	}

	status := http.StatusOK
	if health.Database == "error" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
