package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lox/weatherwidget/internal/api"
	"github.com/lox/weatherwidget/internal/assets"
	"github.com/lox/weatherwidget/internal/owm"
	"github.com/lox/weatherwidget/internal/store"
	"github.com/lox/weatherwidget/internal/units"

	_ "modernc.org/sqlite"
)

const rainBody = `{"name":"Bright","sys":{"country":"AU"},"main":{"temp":15.3},"weather":[{"main":"Rain","description":"light rain"}]}`

func fakeOWM(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("q") == "Atlantis":
			http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
		case q.Get("q") == "Bright", q.Get("lat") != "":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(rainBody))
		default:
			http.Error(w, "unexpected query", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

type testEnv struct {
	srv   *api.Server
	store *store.Store
	cache *assets.Cache
	clock *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	owmSrv := fakeOWM(t)
	env := &testEnv{
		store: setupTestStore(t),
		cache: assets.NewCache(),
		clock: clockwork.NewFakeClock(),
	}
	env.srv = api.NewServer(api.Deps{
		Fetcher:      owm.NewClient("test-key", "metric", 5*time.Second).WithBaseURL(owmSrv.URL),
		Store:        env.store,
		Assets:       env.cache,
		BaseUnit:     units.Celsius,
		FetchTimeout: 5 * time.Second,
		SessionTTL:   time.Minute,
		Clock:        env.clock,
	})
	return env
}

// client is a browser with its own cookie.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, h: e.srv.Handler()}
}

func (c *client) do(method, path string, form url.Values, jsonAccept bool) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if jsonAccept {
		req.Header.Set("Accept", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name == "ww_session" {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) display(w *httptest.ResponseRecorder) map[string]any {
	c.t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		c.t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.client(t).do("GET", "/health", nil, false)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("expected ok status, got %s", body)
	}
	if !strings.Contains(body, `"database":"ok"`) {
		t.Errorf("expected database ok, got %s", body)
	}
}

func TestHealthEndpoint_MissingAssetsDegraded(t *testing.T) {
	srv := api.NewServer(api.Deps{Missing: []string{"images/weather-icons/Rain.png"}})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"degraded"`) {
		t.Errorf("expected degraded status, got %s", w.Body.String())
	}
}

func TestIndex_EmptySession(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	w := c.do("GET", "/", nil, false)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if c.cookie == nil {
		t.Fatal("expected session cookie")
	}
	body := w.Body.String()
	if !strings.Contains(body, "Search for a place") {
		t.Error("expected search form")
	}
	if strings.Contains(body, `id="display"`) {
		t.Error("expected no display before the first lookup")
	}
	if !strings.Contains(body, "addEventListener('load'") {
		t.Error("expected a location attempt on page load for a new session")
	}
}

func TestIndex_NoAutoLocateAfterLookup(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.do("POST", "/search", url.Values{"q": {"Bright"}}, false)

	body := c.do("GET", "/", nil, false).Body.String()
	if strings.Contains(body, "addEventListener('load'") {
		t.Error("page load must not replace an existing reading with a location lookup")
	}
	if !strings.Contains(body, `id="locate"`) {
		t.Error("expected the locate form to remain available")
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	w := env.client(t).do("GET", "/nope", nil, false)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSearchToggleAndAuditLog(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	d := c.display(c.do("POST", "/search", url.Values{"q": {"Bright"}}, true))
	if d["label"] != "Bright, AU" {
		t.Errorf("label = %v", d["label"])
	}
	if d["temperature_text"] != "15.3" || d["unit_symbol"] != "℃" {
		t.Errorf("temperature = %v%v", d["temperature_text"], d["unit_symbol"])
	}
	if d["icon"] != "images/weather-icons/Rain.png" {
		t.Errorf("icon = %v", d["icon"])
	}
	if d["description"] != "Light rain" {
		t.Errorf("description = %v", d["description"])
	}
	if d["show_unit_controls"] != true {
		t.Error("expected unit controls")
	}

	d = c.display(c.do("POST", "/toggle", nil, true))
	if d["temperature_text"] != "59.54" || d["unit_symbol"] != "℉" {
		t.Errorf("after toggle = %v%v", d["temperature_text"], d["unit_symbol"])
	}

	d = c.display(c.do("GET", "/api/display", nil, false))
	if d["temperature_text"] != "59.54" {
		t.Errorf("display not persisted across requests: %v", d["temperature_text"])
	}

	w := c.do("GET", "/api/lookups?days=7", nil, false)
	if w.Code != 200 {
		t.Fatalf("lookups: expected 200, got %d", w.Code)
	}
	var resp api.LookupsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Lookups) != 1 {
		t.Fatalf("expected 1 lookup, got %d", len(resp.Lookups))
	}
	l := resp.Lookups[0]
	if l.Outcome != "ok" || l.Kind != "place" || l.Query != "Bright" {
		t.Errorf("unexpected lookup %+v", l)
	}
	if l.HTTPStatus == nil || *l.HTTPStatus != 200 {
		t.Errorf("expected http status 200, got %v", l.HTTPStatus)
	}
	if l.Session != c.cookie.Value {
		t.Errorf("lookup session %q, cookie %q", l.Session, c.cookie.Value)
	}
	if len(resp.Summary) != 1 || resp.Summary[0].Count != 1 {
		t.Errorf("unexpected summary %+v", resp.Summary)
	}
}

func TestSearch_FormRedirectsAndRenders(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	w := c.do("POST", "/search", url.Values{"q": {"Bright"}}, false)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect to %q", loc)
	}

	body := c.do("GET", "/", nil, false).Body.String()
	for _, want := range []string{"Bright, AU", "15.3", "Light rain", "/images/weather-icons/Rain.png", `action="/toggle"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestLocate(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	d := c.display(c.do("POST", "/locate", url.Values{"lat": {"-36.79"}, "lon": {"146.97"}}, true))
	if d["label"] != "Bright, AU" {
		t.Errorf("label = %v", d["label"])
	}

	d = c.display(c.do("POST", "/locate", url.Values{"denied": {"1"}}, true))
	if d["failure"] != "navigation_unavailable" {
		t.Errorf("failure = %v", d["failure"])
	}
	if d["icon"] != "images/weather-icons/Compass.png" {
		t.Errorf("icon = %v", d["icon"])
	}
	if d["label"] != "Error..." {
		t.Errorf("label = %v", d["label"])
	}
	if d["show_unit_controls"] != false {
		t.Error("unit controls should be hidden")
	}
}

func TestSearch_UnknownPlace(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	d := c.display(c.do("POST", "/search", url.Values{"q": {"Atlantis"}}, true))
	if d["failure"] != "location_unavailable" {
		t.Errorf("failure = %v", d["failure"])
	}
	if d["description"] != "Data about entered location is unavailable." {
		t.Errorf("description = %v", d["description"])
	}
	if d["background"] != "images/background-images/Unavailable.jpg" {
		t.Errorf("background = %v", d["background"])
	}

	body := c.do("GET", "/", nil, false).Body.String()
	if strings.Contains(body, `action="/toggle"`) {
		t.Error("toggle must be hidden after a failure")
	}
}

func TestToggle_WithoutReading(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	w := c.do("POST", "/toggle", nil, true)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if d := c.display(w); d["error"] == nil {
		t.Error("expected error message")
	}

	w = c.do("POST", "/toggle", nil, false)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("form toggle: expected 303, got %d", w.Code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	alice := env.client(t)
	bob := env.client(t)

	alice.do("POST", "/search", url.Values{"q": {"Bright"}}, true)
	d := bob.display(bob.do("GET", "/api/display", nil, false))

	if d["label"] == "Bright, AU" {
		t.Error("second session should not see the first session's reading")
	}
	if alice.cookie.Value == bob.cookie.Value {
		t.Error("sessions share a cookie")
	}
}

func TestSessionExpires(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	c.do("POST", "/search", url.Values{"q": {"Bright"}}, true)
	first := c.cookie.Value

	env.clock.Advance(2 * time.Minute)

	d := c.display(c.do("GET", "/api/display", nil, false))
	if c.cookie.Value == first {
		t.Error("expected a new session after the TTL")
	}
	if d["label"] == "Bright, AU" {
		t.Error("expired session state leaked into the new session")
	}
}

func TestImages(t *testing.T) {
	env := newTestEnv(t)
	env.cache.Set("images/weather-icons/Rain.png", []byte("png-bytes"))
	c := env.client(t)

	w := c.do("GET", "/images/weather-icons/Rain.png", nil, false)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	if w.Body.String() != "png-bytes" {
		t.Errorf("body %q", w.Body.String())
	}

	if w := c.do("GET", "/images/weather-icons/Snow.png", nil, false); w.Code != http.StatusNotFound {
		t.Errorf("missing asset: expected 404, got %d", w.Code)
	}
}

func TestCard_FallsBackWithoutBackground(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.do("POST", "/search", url.Values{"q": {"Bright"}}, true)

	w := c.do("GET", "/card.png", nil, false)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Error("expected PNG body")
	}
}

func TestCard_ReflectsUnitToggle(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.do("POST", "/search", url.Values{"q": {"Bright"}}, true)

	before := c.do("GET", "/card.png", nil, false).Body.Bytes()
	c.do("POST", "/toggle", nil, true)
	after := c.do("GET", "/card.png", nil, false).Body.Bytes()

	if len(before) == 0 || len(after) == 0 {
		t.Fatal("expected card bodies")
	}
	if bytes.Equal(before, after) {
		t.Error("card still shows the old unit after toggling")
	}

	again := c.do("GET", "/card.png", nil, false).Body.Bytes()
	if !bytes.Equal(after, again) {
		t.Error("expected the toggled card to be served from cache")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.do("POST", "/search", url.Values{"q": {"Bright"}}, true)

	w := c.do("GET", "/metrics", nil, false)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "weatherwidget_readings_total") {
		t.Error("expected readings counter in metrics output")
	}
}

func TestLookups_Disabled(t *testing.T) {
	srv := api.NewServer(api.Deps{})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/lookups", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
