package videos

import "testing"

func TestYouTubeID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":             "dQw4w9WgXcQ",
		"https://youtube.com/watch?feature=share&v=dQw4w9WgXcQ":   "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?t=90":                       "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0":         "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abc123XYZ_-":              "abc123XYZ_-",
		"https://www.youtube.com/live/liveID123":                  "liveID123",
		"https://www.youtube.com/v/oldStyle":                      "oldStyle",
		"https://www.youtube.com/channel/UC123":                   "",
		"https://vimeo.com/76979871":                              "",
		"not a url":                                               "",
		"https://www.youtube.com/":                                "",
	}
	for in, want := range cases {
		if got := YouTubeID(in); got != want {
			t.Errorf("YouTubeID(%q) = %q want %q", in, got, want)
		}
	}
}

func TestResolveYouTubeURL(t *testing.T) {
	if got := ResolveYouTubeURL("https://www.youtube.com/shorts/abc123"); got != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("unexpected shorts resolution %q", got)
	}
	if got := ResolveYouTubeURL("https://www.youtube.com/live/xyz"); got != "https://www.youtube.com/watch?v=xyz" {
		t.Fatalf("unexpected live resolution %q", got)
	}
	watch := "https://www.youtube.com/watch?v=abc&t=90"
	if got := ResolveYouTubeURL(watch); got != watch {
		t.Fatalf("watch urls should be untouched, got %q", got)
	}
}

func TestVimeoPlayerID(t *testing.T) {
	cases := map[string]string{
		"https://player.vimeo.com/video/76979871?h=8272103f6e": "76979871",
		"https://vimeo.com/channels/staffpicks/76979871":       "76979871",
		"https://vimeo.com/76979871":                           "76979871",
		"https://vimeo.com/12345":                              "",
		"https://example.com/76979871":                         "",
	}
	for in, want := range cases {
		if got := VimeoPlayerID(in); got != want {
			t.Errorf("VimeoPlayerID(%q) = %q want %q", in, got, want)
		}
	}
}

func TestVimeoNumericTail(t *testing.T) {
	cases := map[string]string{
		"https://vimeo.com/76979871/":               "76979871",
		"https://vimeo.com/76979871/8272103f6e":     "76979871",
		"https://vimeo.com/showcase/staff":          "",
		"https://example.com/76979871":              "",
	}
	for in, want := range cases {
		if got := vimeoNumericTail(in); got != want {
			t.Errorf("vimeoNumericTail(%q) = %q want %q", in, got, want)
		}
	}
}

func TestDailymotionID(t *testing.T) {
	cases := map[string]string{
		"https://www.dailymotion.com/video/x7tgad0":                     "x7tgad0",
		"https://www.dailymotion.com/video/x7tgad0_some-title":          "x7tgad0",
		"https://www.dailymotion.com/video/x7tgad0?playlist=x6hynp":     "x7tgad0",
		"https://www.dailymotion.com/embed/video/x7tgad0":               "x7tgad0",
		"https://www.dailymotion.com/hub/x1xyz#video=x7tgad0":           "x7tgad0",
		"https://dai.ly/x7tgad0":                                        "x7tgad0",
		"https://www.dailymotion.com/":                                  "",
		"https://www.dailymotion.com/user/someone":                      "",
		"dailymotion":                                                   "",
		"":                                                              "",
	}
	for in, want := range cases {
		if got := DailymotionID(in); got != want {
			t.Errorf("DailymotionID(%q) = %q want %q", in, got, want)
		}
	}
}

func TestExtractIframeSrc(t *testing.T) {
	cases := map[string]string{
		`<iframe width="560" src="https://www.youtube.com/embed/abc?a=1&amp;b=2" allowfullscreen></iframe>`: "https://www.youtube.com/embed/abc?a=1&b=2",
		`<div><p>hello</p><iframe src='https://player.vimeo.com/video/76979871'></iframe></div>`:          "https://player.vimeo.com/video/76979871",
		`<iframe title="no source"></iframe>`:                                                              "",
		`<video src="https://example.com/a.mp4"></video>`:                                                   "",
		``: "",
	}
	for in, want := range cases {
		if got := ExtractIframeSrc(in); got != want {
			t.Errorf("ExtractIframeSrc(%q) = %q want %q", in, got, want)
		}
	}
}

func TestHasScript(t *testing.T) {
	if !HasScript(`<div id="p"></div><SCRIPT src="https://cdn.example.com/p.js"></SCRIPT>`) {
		t.Fatal("expected script detection to be case insensitive")
	}
	if HasScript(`<iframe src="https://example.com"></iframe>`) {
		t.Fatal("iframe markup has no script")
	}
}

func TestTypeForURL(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/embed/abc":         ProviderYouTube,
		"https://player.vimeo.com/video/1":          ProviderVimeo,
		"https://www.dailymotion.com/embed/video/x": ProviderDailymotion,
		"https://rumble.com/embed/v1":               ProviderRumble,
		"https://www.facebook.com/plugins/video":    "facebook",
		"https://example.com/a.mp4":                 "",
	}
	for in, want := range cases {
		if got := TypeForURL(in); got != want {
			t.Errorf("TypeForURL(%q) = %q want %q", in, got, want)
		}
	}
}

func TestHumanDuration(t *testing.T) {
	cases := map[int]string{
		0:    "",
		-5:   "",
		9:    "00:09",
		62:   "01:02",
		3600: "1:00:00",
		3725: "1:02:05",
	}
	for in, want := range cases {
		if got := HumanDuration(in); got != want {
			t.Errorf("HumanDuration(%d) = %q want %q", in, got, want)
		}
	}
}
