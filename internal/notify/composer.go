package notify

import (
	"bytes"
	"html/template"
	"log/slog"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
)

const previewLimit = 160

var bodyTemplate = template.Must(template.New("review").Parse(
	`<div style=color:#000><p>Hi all,<p>Vừa có review mới của Yes4All, xem ngay <a href="{{.PageURL}}">tại đây</a></div>` +
		`{{if .HasDetail}}<div style="background: #fff;border-radius: 5px;display: inline-block;margin: 1rem;position: relative;padding: 20px;box-shadow: 0 19px 38px rgba(0,0,0,0.30), 0 15px 12px rgba(0,0,0,0.22);">{{.Detail}}</div>{{end}}` +
		`<p style=color:#000>Best wishes</p>`,
))

// Content is a composed notification body.
type Content struct {
	HTML string
	// Text is the plain-text alternative part.
	Text string
	// Preview is a short tag-free excerpt of the review used in logs.
	Preview string
}

// Composer wraps the newest review in the fixed email layout.
type Composer struct {
	pageURL string
	strip   *bluemonday.Policy
}

func NewComposer(pageURL string) *Composer {
	return &Composer{
		pageURL: pageURL,
		strip:   bluemonday.StrictPolicy(),
	}
}

// Compose never fails: without a detail fragment the intro and closing are
// still rendered, just without the review box.
func (c *Composer) Compose(detail string, hasDetail bool) Content {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		PageURL   string
		HasDetail bool
		Detail    template.HTML
	}{
		PageURL:   c.pageURL,
		HasDetail: hasDetail,
		Detail:    template.HTML(detail),
	})
	if err != nil {
		slog.Error("failed to render notification body", "error", err)
	}
	body := buf.String()

	var preview string
	if hasDetail {
		preview = c.preview(detail)
	}

	text, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		slog.Warn("failed to build plain-text body", "error", err)
		text = c.preview(body)
	}

	return Content{HTML: body, Text: text, Preview: preview}
}

func (c *Composer) preview(markup string) string {
	text := strings.Join(strings.Fields(c.strip.Sanitize(markup)), " ")
	runes := []rune(text)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit]) + "…"
	}
	return text
}
