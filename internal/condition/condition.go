package condition

import "path"

// Category is the weather service's coarse "main" condition tag.
type Category string

const (
	Thunderstorm Category = "Thunderstorm"
	Drizzle      Category = "Drizzle"
	Rain         Category = "Rain"
	Snow         Category = "Snow"
	Mist         Category = "Mist"
	Smoke        Category = "Smoke"
	Haze         Category = "Haze"
	Dust         Category = "Dust"
	Sand         Category = "Sand"
	Ash          Category = "Ash"
	Squall       Category = "Squall"
	Fog          Category = "Fog"
	Tornado      Category = "Tornado"
	Clear        Category = "Clear"
	Clouds       Category = "Clouds"
)

// Asset directories, relative to the site root. Category names double as file stems,
// so the spelling above must match the files on disk.
const (
	IconDir       = "images/weather-icons"
	BackgroundDir = "images/background-images"
)

// Stems for the two failure visuals.
const (
	CompassStem     = "Compass"
	UnavailableStem = "Unavailable"
)

var categories = [...]Category{
	Thunderstorm, Drizzle, Rain, Snow, Mist, Smoke, Haze, Dust,
	Sand, Ash, Squall, Fog, Tornado, Clear, Clouds,
}

// mistLike conditions have no art of their own and share the Mist visuals.
var mistLike = [...]Category{Smoke, Haze, Dust, Sand, Ash, Squall}

// Categories returns the known categories in the service's documented order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// AssetPair is the icon and background bound to a condition.
type AssetPair struct {
	Icon       string `json:"icon"`
	Background string `json:"background"`
}

// IconPath returns the icon path for an asset stem.
func IconPath(stem string) string {
	return path.Join(IconDir, stem+".png")
}

// BackgroundPath returns the background path for an asset stem.
func BackgroundPath(stem string) string {
	return path.Join(BackgroundDir, stem+".jpg")
}

func pairFor(stem string) AssetPair {
	return AssetPair{Icon: IconPath(stem), Background: BackgroundPath(stem)}
}

// MistPair is shared by Mist and every mist-like condition.
func MistPair() AssetPair { return pairFor(string(Mist)) }

// CompassPair is shown when navigation is unavailable.
func CompassPair() AssetPair { return pairFor(CompassStem) }

// UnavailablePair is shown when no data could be obtained for a location.
func UnavailablePair() AssetPair { return pairFor(UnavailableStem) }

// Classify maps a main condition string to its asset pair. The boolean is false for
// strings outside the known categories; callers fall back to UnavailablePair.
func Classify(main string) (AssetPair, bool) {
	if contains(mistLike[:], main) {
		return MistPair(), true
	}
	if contains(categories[:], main) {
		return pairFor(main), true
	}
	return AssetPair{}, false
}

func contains(set []Category, main string) bool {
	for _, c := range set {
		if string(c) == main {
			return true
		}
	}
	return false
}

// RequiredAssets lists every distinct asset path a deployment has to ship: the
// classified pairs for all categories plus the Compass and Unavailable visuals.
func RequiredAssets() []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p AssetPair) {
		for _, s := range []string{p.Icon, p.Background} {
			if !seen[s] {
				seen[s] = true
				paths = append(paths, s)
			}
		}
	}
	for _, c := range categories {
		pair, _ := Classify(string(c))
		add(pair)
	}
	add(CompassPair())
	add(UnavailablePair())
	return paths
}

// StemOf returns the file stem of an asset path ("images/weather-icons/Rain.png" -> "Rain").
func StemOf(assetPath string) string {
	base := path.Base(assetPath)
	return base[:len(base)-len(path.Ext(base))]
}

// IsIcon reports whether assetPath lives in the icon directory.
func IsIcon(assetPath string) bool {
	return path.Dir(assetPath) == IconDir
}
