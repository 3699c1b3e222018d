package api

import (
	"embed"
	"html/template"
)

//go:embed templates/*
var templateFS embed.FS

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"asset": func(p string) string {
			if p == "" {
				return ""
			}
			return "/" + p
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
