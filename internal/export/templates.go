package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var manifestTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/manifest.html")
	if err != nil {
		// Fallback to built-in template if file not found
		manifestTemplate = template.Must(template.New("manifest").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	manifestTemplate = template.Must(template.New("manifest").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for manifest template rendering
type TemplateData struct {
	TripName    string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
	GeneratedAt time.Time
	FieldLabels []string
	Rows        []ManifestRow
	Checklists  []ChecklistRow
}

// RenderManifestHTML renders the manifest template with provided data
func RenderManifestHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := manifestTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.TripName}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #999; padding: 0.4rem 0.6rem; text-align: left; }
  </style>
</head>
<body>
  <h1>{{.TripName}}</h1>
  <div class="meta">{{.Location}} | {{.StartDate.Format "Jan 2, 2006"}} to {{.EndDate.Format "Jan 2, 2006"}}</div>
  <table>
    <tr><th>Name</th><th>Role</th><th>Boat</th>{{range .FieldLabels}}<th>{{.}}</th>{{end}}</tr>
    {{range .Rows}}<tr><td>{{.DisplayName}}</td><td>{{.Role}}</td><td>{{.BoatName}}</td>{{$row := .}}{{range $.FieldLabels}}<td>{{index $row.Fields .}}</td>{{end}}</tr>{{end}}
  </table>
  {{if .Checklists}}
  <h2>Checklists</h2>
  <table>
    <tr><th>Checklist</th><th>Assigned to</th><th>Progress</th></tr>
    {{range .Checklists}}<tr><td>{{.Name}}</td><td>{{.Target}}</td><td>{{.Completed}}/{{.Total}}</td></tr>{{end}}
  </table>
  {{end}}
</body>
</html>`
