package player

import (
	"fmt"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/vidgallery/backend/internal/config"
)

var shareTextEscaper = strings.NewReplacer(" ", "%20", "|", "%7C", "@", "%40")

// SharePage describes the page being shared.
type SharePage struct {
	URL         string
	Title       string
	Image       string
	Description string
}

// ShareButtons builds the share links for the enabled services, in the order
// they are configured.
func ShareButtons(settings config.SocialShareSettings, page SharePage) []ShareButton {
	title := shareTextEscaper.Replace(page.Title)
	pageURL := page.URL

	var buttons []ShareButton
	for _, service := range settings.Services {
		var b ShareButton
		switch service {
		case "facebook":
			b = ShareButton{URL: "https://www.facebook.com/sharer/sharer.php?u=" + pageURL, Text: "Facebook"}
		case "twitter":
			b = ShareButton{URL: fmt.Sprintf("https://twitter.com/intent/tweet?text=%s&url=%s", title, pageURL), Text: "Twitter"}
		case "linkedin":
			b = ShareButton{URL: fmt.Sprintf("https://www.linkedin.com/shareArticle?url=%s&title=%s", pageURL, title), Text: "Linkedin"}
		case "pinterest":
			u := fmt.Sprintf("https://pinterest.com/pin/create/button/?url=%s&description=%s", pageURL, title)
			if page.Image != "" {
				u += "&media=" + page.Image
			}
			b = ShareButton{URL: u, Text: "Pinterest"}
		case "tumblr":
			u := fmt.Sprintf("https://www.tumblr.com/share/link?url=%s&name=%s", pageURL, title)
			if d := excerpt(page.Description, 160); d != "" {
				u += "&description=" + shareTextEscaper.Replace(d)
			}
			b = ShareButton{URL: u, Text: "Tumblr"}
		case "whatsapp":
			b = ShareButton{URL: fmt.Sprintf("https://api.whatsapp.com/send?text=%s%%20%s", title, pageURL), Text: "WhatsApp"}
		case "email":
			subject := fmt.Sprintf("Check out the \"%s\"", title)
			body := fmt.Sprintf("Check out the \"%s\" at %s", title, pageURL)
			b = ShareButton{URL: fmt.Sprintf("mailto:?subject=%s&body=%s", subject, body), Text: "Email"}
		default:
			continue
		}
		b.Service = service
		b.Icon = "aiovg-icon-" + service
		buttons = append(buttons, b)
	}
	return buttons
}

// excerpt returns the first limit runes of the plain text of markup.
func excerpt(markup string, limit int) string {
	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		if tt == xhtml.TextToken {
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
	r := []rune(strings.Join(strings.Fields(b.String()), " "))
	if len(r) > limit {
		r = r[:limit]
	}
	return strings.TrimSpace(string(r))
}

// RestrictedLabel prefixes title with the configured restricted badge. The
// title is returned unchanged when the badge is disabled.
func RestrictedLabel(title string, settings config.RestrictionSettings) string {
	if !settings.ShowRestrictedLabel {
		return title
	}
	text := settings.LabelText
	if text == "" {
		text = "restricted"
	}
	bg := settings.LabelBgColor
	if bg == "" {
		bg = "#aaa"
	}
	fg := settings.LabelTextColor
	if fg == "" {
		fg = "#fff"
	}
	return fmt.Sprintf(
		`<span class="aiovg-restricted-label" style="background-color: %s; color: %s;">%s</span> %s`,
		html.EscapeString(bg), html.EscapeString(fg), html.EscapeString(text), title,
	)
}
