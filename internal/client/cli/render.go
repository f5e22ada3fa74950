package cli

import (
	"html"
	"io"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"

	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// previewRunes - длина описания поста в ленте
const previewRunes = 120

// sanitizer убирает любую разметку из пользовательского текста
var sanitizer = bluemonday.StrictPolicy()

// plain готовит текст пользователя к выводу в терминал
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
}

// ago - относительное время: "just now", "5 minutes ago", "2 days ago"
func ago(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if d := time.Since(t); d < time.Minute && d > -time.Minute {
		return "just now"
	}
	return humanize.Time(t)
}

// preview сжимает пробелы и обрезает текст до previewRunes символов
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:previewRunes-1]) + "…"
}

func count[T any](items []T) string {
	return humanize.Comma(int64(len(items)))
}

const templates = `
{{- define "post" }}
=== Post {{ .ID }} ===

{{ clean .User.FullName }} | {{ .City }} | {{ .Type }} | {{ ago .CreatedAt }}
{{- if .Image }}
Image: {{ image .Image }}
{{- end }}

{{ clean .Description }}

Likes: {{ likes .Likes }}
{{- if .Comments }}

Comments ({{ comments .Comments }}):
{{- range .Comments }}
- {{ clean .User.FullName }}, {{ ago .Date }}: {{ clean .Body }}
{{- end }}
{{- else }}
No comments yet.
{{- end }}
{{ end }}

{{- define "feedItem" -}}
#{{ .N }} {{ clean .Post.User.FullName }} | {{ .Post.City }} | {{ .Post.Type }} | {{ ago .Post.CreatedAt }}
    {{ clean .Post.Description | preview }}
    likes: {{ likes .Post.Likes }}  comments: {{ comments .Post.Comments }}  id: {{ .Post.ID }}
{{- end }}

{{- define "profile" }}
=== Profile ===

Name:      {{ clean .FullName }}
Email:     {{ .Email }}
ID:        {{ .ID }}
{{- if .HomeCity }}
Home city: {{ clean .HomeCity }}
{{- end }}
{{- if .ProfileImage }}
Picture:   {{ image .ProfileImage }}
{{- end }}
{{ end }}

{{- define "types" }}
=== Training Types ===
{{ if eq (len .) 0 }}
No training types found.
{{ else }}
{{- range . }}
- {{ . }}
{{- end }}
{{ end }}
{{- end }}

{{- define "cities" }}
=== Cities ({{ total . }}) ===
{{ if eq (len .) 0 }}
No cities found.
{{ else }}
{{- range . }}
- {{ clean . }}
{{- end }}
{{ end }}
{{- end }}
`

func (c *Cli) parseTemplates() *template.Template {
	return template.Must(template.New("cli").Funcs(template.FuncMap{
		"ago":      ago,
		"clean":    plain,
		"preview":  preview,
		"image":    c.posts.ImageURL,
		"likes":    count[string],
		"comments": count[pkgapi.Comment],
		"total":    count[string],
	}).Parse(templates))
}

func (c *Cli) render(w io.Writer, name string, data any) error {
	return c.tmpl.ExecuteTemplate(w, name, data)
}
