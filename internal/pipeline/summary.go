package pipeline

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
)

var summaryTmpl = template.Must(template.New("summary").Parse(`A new agenda has been published for {{.Council}}{{with .Region}} ({{.}}){{end}}.
{{with .Date}}
Meeting date: {{.}}{{end}}{{with .Time}}
Meeting time: {{.}}{{end}}
Webpage: {{.WebpageURL}}

Documents:
{{range .DownloadURLs}}  - {{.}}
{{end}}{{with .Titles}}
Items:
{{range .}}  - {{.}}
{{end}}{{end}}{{with .Fields}}
Parsed fields:
{{range .}}  {{.Name}}: {{if .Value}}{{.Value}}{{else}}(not found){{end}}
{{end}}{{end}}`))

type summaryField struct {
	Name  string
	Value string
}

// Subject is the notification subject line for rec.
func Subject(rec domain.AgendaRecord) string {
	if strings.TrimSpace(rec.Date) == "" {
		return fmt.Sprintf("New agenda: %s meeting", rec.Council)
	}
	return fmt.Sprintf("New agenda: %s %s meeting", rec.Council, rec.Date)
}

// Summary renders the plain text notification body for rec.
func Summary(rec domain.AgendaRecord) (string, error) {
	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]summaryField, 0, len(names))
	for _, name := range names {
		fields = append(fields, summaryField{Name: name, Value: rec.Fields[name]})
	}

	var buf bytes.Buffer
	err := summaryTmpl.Execute(&buf, struct {
		domain.AgendaRecord
		Fields []summaryField
	}{rec, fields})
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}
