package player

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerceInt(t *testing.T) {
	cases := map[string]int{
		"1":     1,
		"0":     0,
		"true":  1,
		"Yes":   1,
		"on":    1,
		"off":   0,
		"":      0,
		"12abc": 12,
		"-3":    -3,
		"+5":    5,
		"abc":   0,
		"-":     0,
		" 7 ":   7,
	}
	for in, want := range cases {
		if got := CoerceInt(in); got != want {
			t.Errorf("CoerceInt(%q) = %d want %d", in, got, want)
		}
	}
}

func TestURLParamEncoding(t *testing.T) {
	original := "https://cdn.example.com/media/clip one.mp4?quality=hd&x=1"

	encoded := EncodeURLParam(original)
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("encoded value is not url safe: %q", encoded)
	}
	if got := DecodeURLParam(encoded); got != original {
		t.Fatalf("round trip mismatch: got %q", got)
	}

	for _, plain := range []string{"https://example.com/a.mp4", "/uploads/a.mp4", "not base64!!"} {
		if got := DecodeURLParam(plain); got != plain {
			t.Errorf("DecodeURLParam(%q) = %q, want unchanged", plain, got)
		}
	}
}

func TestParseOverrides(t *testing.T) {
	q := url.Values{
		"autoplay": {"true"},
		"loop":     {"0"},
		"ratio":    {"75"},
		"width":    {"640px"},
		"poster":   {EncodeURLParam("https://cdn.example.com/p.jpg")},
		"bogus":    {"1"},
	}

	got := ParseOverrides(q)

	want := Overrides{
		Flags:  map[string]int{"autoplay": 1, "loop": 0},
		Ratio:  75,
		Width:  640,
		Poster: "https://cdn.example.com/p.jpg",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected overrides (-want +got):\n%s", diff)
	}

	if v, ok := got.Flag("muted"); ok || v != 0 {
		t.Fatalf("absent flag reported as set: %d %v", v, ok)
	}
	if v, ok := got.Flag("loop"); !ok || v != 0 {
		t.Fatalf("explicit zero must be reported as set: %d %v", v, ok)
	}
}

func TestParseOverridesRejectsInvalidRatio(t *testing.T) {
	for _, raw := range []string{"-1", "0", "wide"} {
		if got := ParseOverrides(url.Values{"ratio": {raw}}); got.Ratio != 0 {
			t.Errorf("ratio %q accepted as %v", raw, got.Ratio)
		}
	}
}

func TestParseAttributes(t *testing.T) {
	q := url.Values{
		"mp4":     {EncodeURLParam("https://cdn.example.com/a.mp4")},
		"youtube": {"https://www.youtube.com/watch?v=abc"},
		"hls":     {"  "},
		"unknown": {"https://example.com"},
	}

	attrs := ParseAttributes(q)

	want := Attributes{
		"mp4":     "https://cdn.example.com/a.mp4",
		"youtube": "https://www.youtube.com/watch?v=abc",
	}
	if diff := cmp.Diff(want, attrs); diff != "" {
		t.Fatalf("unexpected attributes (-want +got):\n%s", diff)
	}
	if !attrs.HasSource() {
		t.Fatal("expected a playable source")
	}
	if (Attributes{"title": "x"}).HasSource() {
		t.Fatal("title alone is not a source")
	}
}

func TestParseAttributesGenericSource(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
		want Attributes
	}{
		{
			name: "youtube host",
			q:    url.Values{"src": {"https://youtu.be/abc"}},
			want: Attributes{"youtube": "https://youtu.be/abc"},
		},
		{
			name: "vimeo host encoded",
			q:    url.Values{"src": {EncodeURLParam("https://vimeo.com/123")}},
			want: Attributes{"vimeo": "https://vimeo.com/123"},
		},
		{
			name: "dailymotion host",
			q:    url.Values{"src": {"https://www.dailymotion.com/video/x7"}},
			want: Attributes{"dailymotion": "https://www.dailymotion.com/video/x7"},
		},
		{
			name: "rumble host",
			q:    url.Values{"src": {"https://rumble.com/v1-clip.html"}},
			want: Attributes{"rumble": "https://rumble.com/v1-clip.html"},
		},
		{
			name: "plain file",
			q:    url.Values{"src": {"https://cdn.example.com/b.webm"}},
			want: Attributes{"mp4": "https://cdn.example.com/b.webm"},
		},
		{
			name: "explicit key wins",
			q:    url.Values{"src": {"https://cdn.example.com/b.mp4"}, "mp4": {"https://cdn.example.com/a.mp4"}},
			want: Attributes{"mp4": "https://cdn.example.com/a.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseAttributes(tt.q)); diff != "" {
				t.Fatalf("unexpected attributes (-want +got):\n%s", diff)
			}
		})
	}
}
