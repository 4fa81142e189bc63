package player

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/vidgallery/backend/internal/models"
)

var chapterPattern = regexp.MustCompile(`((\d+:)?\d+:\d{2})\s+(.+)`)

var errMalformedTimestamp = errors.New("malformed timestamp")

// ParseTimestamp converts HH:MM:SS, MM:SS or plain seconds into seconds.
func ParseTimestamp(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errMalformedTimestamp
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", errMalformedTimestamp, s)
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", errMalformedTimestamp, s)
		}
		total = total*60 + n
	}
	return total, nil
}

// FormatTimestamp is the inverse of ParseTimestamp.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ExtractChapters finds "timestamp label" pairs in free text, such as a video
// description. A later entry with the same timestamp replaces an earlier one.
func ExtractChapters(text string) []Chapter {
	var chapters []Chapter
	for _, m := range chapterPattern.FindAllStringSubmatch(text, -1) {
		seconds, err := ParseTimestamp(m[1])
		if err != nil {
			continue
		}
		label := chapterLabel(m[3])
		if label == "" {
			continue
		}
		chapters = upsertChapter(chapters, Chapter{Time: seconds, Label: label})
	}
	return chapters
}

// MergeChapters overlays the editor-entered markers on the chapters found in
// the description and sorts the result by time. Markers with malformed
// timestamps are skipped.
func MergeChapters(extracted []Chapter, meta []models.ChapterMeta) []Chapter {
	chapters := slices.Clone(extracted)
	for _, m := range meta {
		seconds, err := ParseTimestamp(m.Time)
		if err != nil {
			continue
		}
		label := chapterLabel(m.Label)
		if label == "" {
			continue
		}
		chapters = upsertChapter(chapters, Chapter{Time: seconds, Label: label})
	}
	slices.SortStableFunc(chapters, func(a, b Chapter) int { return a.Time - b.Time })
	return chapters
}

// FormatChapters renders chapters one per line so that ExtractChapters reads
// them back unchanged.
func FormatChapters(chapters []Chapter) string {
	var b strings.Builder
	for _, c := range chapters {
		if c.Label == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", FormatTimestamp(c.Time), c.Label)
	}
	return b.String()
}

// chapterLabel drops leading dashes and collapses whitespace, so a label
// survives a FormatChapters and ExtractChapters round trip.
func chapterLabel(raw string) string {
	raw = strings.TrimLeftFunc(raw, func(r rune) bool { return r == '-' || unicode.IsSpace(r) })
	return strings.Join(strings.Fields(raw), " ")
}

func upsertChapter(chapters []Chapter, c Chapter) []Chapter {
	i := slices.IndexFunc(chapters, func(existing Chapter) bool { return existing.Time == c.Time })
	if i >= 0 {
		chapters[i] = c
		return chapters
	}
	return append(chapters, c)
}
