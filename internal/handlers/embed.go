package handlers

import (
	"bytes"
	"encoding/json"
	"html"
	"html/template"
	"net/http"
	"strings"

	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/player"
)

var embedTemplate = template.Must(template.New("player").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>{{.Title}}</title>
<style>
html, body { width: 100%; height: 100%; margin: 0; padding: 0; overflow: hidden; background: #000; }
.aiovg-player { position: relative; padding-bottom: {{.PaddingBottom}}%; height: 0; }
.aiovg-player > * { position: absolute; top: 0; left: 0; width: 100%; height: 100%; }
.aiovg-restrictions, .aiovg-privacy-wrapper { display: flex; flex-direction: column; align-items: center; justify-content: center; color: #fff; text-align: center; }
</style>
</head>
<body>
<div class="aiovg-player-container" style="max-width: {{.MaxWidth}};">
<div class="aiovg-player aiovg-player-{{.Mode}}">
{{- if eq .Mode "videojs"}}
<aiovg-video data-params="{{.Params}}">
<video {{.VideoAttrs}}>
{{- range .Settings.Sources}}
<source type="{{.Type}}" src="{{.Src}}"{{if .Label}} label="{{.Label}}"{{end}}>
{{- end}}
{{- range .Settings.Tracks}}
<track kind="subtitles" src="{{.Src}}" label="{{.Label}}" srclang="{{.SrcLang}}">
{{- end}}
</video>
</aiovg-video>
{{- else if eq .Mode "iframe"}}
{{- if .Consent}}
<div class="aiovg-privacy-wrapper" data-iframe-src="{{.Settings.Iframe}}">
<div class="aiovg-privacy-consent-message">{{.ConsentMessage}}</div>
<button type="button" class="aiovg-privacy-consent-button">{{.ConsentButton}}</button>
</div>
<script>
document.querySelector('.aiovg-privacy-consent-button').addEventListener('click', function () {
	document.cookie = {{.ConsentCookie}} + '=1; path=/; max-age=' + (86400 * 365);
	window.location.reload();
});
</script>
{{- else}}
<iframe src="{{.Settings.Iframe}}" title="{{.Title}}" width="560" height="315" frameborder="0" scrolling="no" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share" allowfullscreen></iframe>
{{- end}}
{{- else if eq .Mode "embedcode"}}
{{.EmbedHTML}}
{{- else}}
<div class="aiovg-restrictions">
<p class="aiovg-restrictions-title">{{.Title}}</p>
<div class="aiovg-restrictions-message">{{.Message}}</div>
</div>
{{- end}}
</div>
</div>
</body>
</html>
`))

// embedPage is the view model of the standalone player page. Markup fields
// come from site settings or stored embed codes and are trusted.
type embedPage struct {
	Mode           player.Mode
	Title          string
	MaxWidth       string
	PaddingBottom  float64
	Settings       *player.Settings
	Params         string
	VideoAttrs     template.HTMLAttr
	Consent        bool
	ConsentMessage template.HTML
	ConsentButton  string
	ConsentCookie  string
	EmbedHTML      template.HTML
	Message        template.HTML
}

// EmbedHandler renders the standalone player page offered in embed codes.
type EmbedHandler struct {
	Player   PlayerHandler
	Settings config.SettingsSource
}

// Page handles GET /player/{id} and GET /player.
func (h EmbedHandler) Page(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Player.Resolver == nil {
		logger.Error("player resolver unavailable")
		http.Error(w, "player service unavailable", http.StatusInternalServerError)
		return
	}

	req, err := h.Player.playerRequest(r)
	if err != nil {
		logger.Warn("invalid player page request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.Player.Resolver.Resolve(ctx, req)
	if err != nil {
		logger.Error("resolve player page failed", "videoId", req.VideoID, "error", err)
		http.Error(w, "unable to resolve player", http.StatusInternalServerError)
		return
	}

	if res.Mode == player.ModeEmpty {
		http.Error(w, "no playable video", http.StatusNotFound)
		return
	}

	page, err := h.page(r, res)
	if err != nil {
		logger.Error("build player page failed", "videoId", req.VideoID, "error", err)
		http.Error(w, "unable to render player", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := embedTemplate.Execute(&buf, page); err != nil {
		logger.Error("render player page failed", "videoId", req.VideoID, "error", err)
		http.Error(w, "unable to render player", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h EmbedHandler) page(r *http.Request, res player.Result) (embedPage, error) {
	page := embedPage{
		Mode:          res.Mode,
		Title:         res.Title,
		MaxWidth:      res.Container.MaxWidth,
		PaddingBottom: res.Container.PaddingBottom,
		Settings:      res.Settings,
		VideoAttrs:    template.HTMLAttr(renderAttributes(res.Attributes)),
		EmbedHTML:     template.HTML(res.EmbedHTML),
		Message:       template.HTML(res.Message),
	}
	if page.Settings == nil {
		page.Settings = &player.Settings{}
	}

	if res.Mode == player.ModeVideoJS {
		params, err := json.Marshal(res.Settings)
		if err != nil {
			return embedPage{}, err
		}
		page.Params = string(params)
	}

	if res.Mode == player.ModeIframe && page.Settings.CookieConsent == 1 {
		privacy := config.DefaultSettings().Privacy
		if h.Settings != nil {
			site, err := h.Settings.Settings(r.Context())
			if err != nil {
				return embedPage{}, err
			}
			privacy = site.Privacy
		}
		page.Consent = true
		page.ConsentMessage = template.HTML(privacy.ConsentMessage)
		page.ConsentButton = privacy.ConsentButtonLabel
		page.ConsentCookie = ConsentCookie
	}

	return page, nil
}

// renderAttributes writes the video element attributes. Empty values are
// emitted as boolean attributes.
func renderAttributes(attrs []player.Attribute) string {
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Value == "" {
			parts = append(parts, attr.Name)
			continue
		}
		parts = append(parts, attr.Name+`="`+html.EscapeString(attr.Value)+`"`)
	}
	return strings.Join(parts, " ")
}
