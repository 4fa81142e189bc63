package player

import (
	"slices"

	"github.com/samber/lo"
)

type control struct {
	key       string
	component string
}

// controlOrder is the fixed left-to-right order of the control bar.
var controlOrder = []control{
	{"playpause", "PlayToggle"},
	{"current", "CurrentTimeDisplay"},
	{"progress", "ProgressControl"},
	{"duration", "DurationDisplay"},
	{"spacer", "CustomControlSpacer"},
	{"tracks", "CaptionsButton"},
	{"speed", "PlaybackRateMenuButton"},
	{"quality", "QualitySelector"},
	{"volume", "VolumePanel"},
	{"pip", "PictureInPictureToggle"},
	{"fullscreen", "FullscreenToggle"},
}

// Controls is the computed control bar.
type Controls struct {
	Keys     []string
	Children []string
	Classes  []string
}

// Has reports whether the control identified by key is visible.
func (c Controls) Has(key string) bool {
	return slices.Contains(c.Keys, key)
}

// BuildControls filters the fixed control order against enabled and applies
// the stream-dependent insertions.
func BuildControls(enabled func(key string) bool, sources []Source, theme string) Controls {
	providerTech := hasFormat(sources, "youtube", "vimeo")
	streaming := hasFormat(sources, "hls", "dash")

	controls := lo.Filter(controlOrder, func(c control, _ int) bool {
		switch c.key {
		case "spacer":
			return true
		case "pip":
			return enabled(c.key) && !providerTech
		default:
			return enabled(c.key)
		}
	})

	has := func(key string) bool {
		return slices.ContainsFunc(controls, func(c control) bool { return c.key == key })
	}

	if streaming && has("progress") {
		controls = insertAfter(controls, "progress", control{"liveui", "SeekToLive"})
	}
	if has("current") && has("duration") && (theme == "custom" || !has("progress")) {
		controls = insertAfter(controls, "current", control{"timedivider", "TimeDivider"})
	}
	if has("tracks") {
		controls = insertAfter(controls, "tracks", control{"audio", "AudioTrackButton"})
	}

	result := Controls{
		Keys:     lo.Map(controls, func(c control, _ int) string { return c.key }),
		Children: lo.Map(controls, func(c control, _ int) string { return c.component }),
	}
	if !has("progress") {
		result.Classes = append(result.Classes, "vjs-no-progress-control")
	}
	if len(controls) == 0 || (len(controls) == 1 && controls[0].key == "spacer") {
		result.Classes = append(result.Classes, "vjs-no-control-bar")
	}
	return result
}

func insertAfter(controls []control, key string, c control) []control {
	i := slices.IndexFunc(controls, func(existing control) bool { return existing.key == key })
	if i < 0 {
		return controls
	}
	return slices.Insert(controls, i+1, c)
}

func hasFormat(sources []Source, formats ...string) bool {
	return lo.SomeBy(sources, func(s Source) bool { return slices.Contains(formats, s.Format) })
}
