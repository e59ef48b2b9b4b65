package email

import (
	"bytes"
	"fmt"
	"html"
	htmltemplate "html/template"
	"regexp"
	"strings"
	texttemplate "text/template"

	"github.com/emailbuilder/emailbuilder/internal/model"
)

const htmlLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Subject}}</title>
</head>
<body>
{{- if .HeaderImage}}
<img src="{{asset .HeaderImage}}" />
{{- end}}
{{- if .HeaderText}}
<div style="color: {{css .HeaderTextColor}}; background-color: {{css .HeaderBackgroundColor}}">
{{trusted .HeaderText}}
</div>
{{- end}}
{{trusted .Body}}
{{- if .FooterImage}}
<img src="{{asset .FooterImage}}" />
{{- end}}
{{- if .FooterText}}
<div style="color: {{css .FooterTextColor}}; background-color: {{css .FooterBackgroundColor}}">
{{trusted .FooterText}}
</div>
{{- end}}
{{- if .FooterBottomImage}}
<img src="{{asset .FooterBottomImage}}" />
{{- end}}
</body>
</html>`

const textLayout = `{{with .HeaderText}}{{plain .}}

{{end}}{{plain .Body}}{{with .FooterText}}

{{plain .}}{{end}}
`

var (
	tagRe        = regexp.MustCompile(`(?s)<[^>]*>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	cssColorRe   = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|rgba?\([0-9.,%\s]+\))$`)
)

// LayoutRenderer turns a RenderedEmail into HTML and plain-text bodies.
// Header text, footer text and body are author-controlled HTML and are
// inserted unescaped; images and colors are escaped.
type LayoutRenderer struct {
	assetBaseURL string
	html         *htmltemplate.Template
	text         *texttemplate.Template
}

// NewLayoutRenderer creates a new LayoutRenderer. Relative image paths are
// resolved against assetBaseURL.
func NewLayoutRenderer(assetBaseURL string) *LayoutRenderer {
	r := &LayoutRenderer{assetBaseURL: strings.TrimRight(assetBaseURL, "/")}

	r.html = htmltemplate.Must(htmltemplate.New("email").Funcs(htmltemplate.FuncMap{
		"asset":   r.asset,
		"css":     cssColor,
		"trusted": func(s string) htmltemplate.HTML { return htmltemplate.HTML(s) },
	}).Parse(htmlLayout))

	r.text = texttemplate.Must(texttemplate.New("email_text").Funcs(texttemplate.FuncMap{
		"plain": plainText,
	}).Parse(textLayout))

	return r
}

// Render builds the outgoing message for to
func (r *LayoutRenderer) Render(to string, e *model.RenderedEmail) (Message, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := r.html.Execute(&htmlBuf, e); err != nil {
		return Message{}, fmt.Errorf("failed to render html layout: %w", err)
	}
	if err := r.text.Execute(&textBuf, e); err != nil {
		return Message{}, fmt.Errorf("failed to render text layout: %w", err)
	}

	return Message{
		To:       to,
		Subject:  e.Subject,
		HTMLBody: htmlBuf.String(),
		TextBody: strings.TrimSpace(textBuf.String()),
	}, nil
}

func (r *LayoutRenderer) asset(path string) string {
	if r.assetBaseURL == "" || strings.Contains(path, "://") || strings.HasPrefix(path, "data:") {
		return path
	}
	return r.assetBaseURL + "/" + strings.TrimLeft(path, "/")
}

// cssColor passes through plain color values and drops anything else
func cssColor(v string) htmltemplate.CSS {
	v = strings.TrimSpace(v)
	if !cssColorRe.MatchString(v) {
		return ""
	}
	return htmltemplate.CSS(v)
}

func plainText(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n\n").Replace(s)
	s = html.UnescapeString(tagRe.ReplaceAllString(s, ""))
	return blankLinesRe.ReplaceAllString(strings.TrimSpace(s), "\n\n")
}
