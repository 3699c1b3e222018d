package condition

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		main   string
		want   AssetPair
		wantOK bool
	}{
		{
			name:   "rain uses its own art",
			main:   "Rain",
			want:   AssetPair{Icon: "images/weather-icons/Rain.png", Background: "images/background-images/Rain.jpg"},
			wantOK: true,
		},
		{
			name:   "clouds uses its own art",
			main:   "Clouds",
			want:   AssetPair{Icon: "images/weather-icons/Clouds.png", Background: "images/background-images/Clouds.jpg"},
			wantOK: true,
		},
		{
			name:   "mist",
			main:   "Mist",
			want:   MistPair(),
			wantOK: true,
		},
		{
			name:   "fog is not collapsed into mist",
			main:   "Fog",
			want:   AssetPair{Icon: "images/weather-icons/Fog.png", Background: "images/background-images/Fog.jpg"},
			wantOK: true,
		},
		{
			name:   "unknown condition",
			main:   "NotACategory",
			wantOK: false,
		},
		{
			name:   "case sensitive",
			main:   "rain",
			wantOK: false,
		},
		{
			name:   "empty",
			main:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.main)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.main, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.main, got, tt.want)
			}
		})
	}
}

func TestClassify_MistLikeShareMistPair(t *testing.T) {
	for _, c := range []Category{Smoke, Haze, Dust, Sand, Ash, Squall} {
		got, ok := Classify(string(c))
		if !ok {
			t.Fatalf("Classify(%q) returned no result", c)
		}
		if got != MistPair() {
			t.Errorf("Classify(%q) = %+v, want mist pair", c, got)
		}
	}
}

func TestClassify_OtherCategoriesUseOwnStem(t *testing.T) {
	mistLike := map[Category]bool{Smoke: true, Haze: true, Dust: true, Sand: true, Ash: true, Squall: true}
	for _, c := range Categories() {
		if mistLike[c] {
			continue
		}
		got, ok := Classify(string(c))
		if !ok {
			t.Fatalf("Classify(%q) returned no result", c)
		}
		want := AssetPair{
			Icon:       "images/weather-icons/" + string(c) + ".png",
			Background: "images/background-images/" + string(c) + ".jpg",
		}
		if got != want {
			t.Errorf("Classify(%q) = %+v, want %+v", c, got, want)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	first, _ := Classify("Haze")
	for i := 0; i < 10; i++ {
		got, _ := Classify("Haze")
		if got != first {
			t.Fatalf("call %d returned %+v, want %+v", i, got, first)
		}
	}
}

func TestCategories(t *testing.T) {
	got := Categories()
	if len(got) != 15 {
		t.Fatalf("len(Categories()) = %d, want 15", len(got))
	}
	if got[0] != Thunderstorm || got[14] != Clouds {
		t.Errorf("unexpected order: first %q last %q", got[0], got[14])
	}

	// Callers must not be able to mutate the enumeration.
	got[0] = "Changed"
	if Categories()[0] != Thunderstorm {
		t.Error("Categories() exposes internal state")
	}
}

func TestRequiredAssets(t *testing.T) {
	paths := RequiredAssets()

	want := map[string]bool{
		"images/weather-icons/Mist.png":             true,
		"images/background-images/Mist.jpg":         true,
		"images/weather-icons/Compass.png":          true,
		"images/background-images/Compass.jpg":      true,
		"images/weather-icons/Unavailable.png":      true,
		"images/background-images/Unavailable.jpg":  true,
		"images/weather-icons/Thunderstorm.png":     true,
		"images/background-images/Thunderstorm.jpg": true,
	}
	got := make(map[string]bool)
	for _, p := range paths {
		if got[p] {
			t.Errorf("duplicate asset %q", p)
		}
		got[p] = true
	}
	for p := range want {
		if !got[p] {
			t.Errorf("missing required asset %q", p)
		}
	}
	if got["images/weather-icons/Smoke.png"] {
		t.Error("mist-like conditions should not require their own art")
	}

	// 9 categories with own art (15 minus 6 mist-like) plus Compass and Unavailable.
	if len(paths) != 22 {
		t.Errorf("len(RequiredAssets()) = %d, want 22", len(paths))
	}
}

func TestStemOf(t *testing.T) {
	if got := StemOf("images/weather-icons/Rain.png"); got != "Rain" {
		t.Errorf("StemOf = %q, want Rain", got)
	}
	if !IsIcon("images/weather-icons/Rain.png") {
		t.Error("expected icon path")
	}
	if IsIcon("images/background-images/Rain.jpg") {
		t.Error("background reported as icon")
	}
}
