package videos

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractIframeSrc returns the src attribute of the first iframe in the
// markup, or "" when there is none.
func ExtractIframeSrc(markup string) string {
	if !strings.Contains(markup, "<iframe") {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed document; either way there is no iframe left.
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "iframe" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" {
					return string(val)
				}
				if !more {
					break
				}
			}
		}
	}
}

// HasScript reports whether the embed code must be rendered verbatim because
// it ships its own script loader.
func HasScript(markup string) bool {
	return strings.Contains(strings.ToLower(markup), "<script")
}
