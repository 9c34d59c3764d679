// Package web holds the page templates and the static files served under
// /static/.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS

// TemplatePattern matches every page and partial in TemplatesFS.
const TemplatePattern = "templates/*.html"

// Static returns the static files rooted at static/, so app.css is served
// as /static/app.css.
func Static() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}
