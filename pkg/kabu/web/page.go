package web

import (
	"embed"
	"html/template"
)

//go:embed templates/index.html
var templates embed.FS

func parsePage() (*template.Template, error) {
	return template.ParseFS(templates, "templates/index.html")
}
