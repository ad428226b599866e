// Package assets embeds the browser client, its stylesheet and the page layout
package assets

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed client/*
var clientFS embed.FS

//go:embed templates/*.html
var templateFS embed.FS

// Client file names, served under /assets/
const (
	ClientJS  = "elevatebox.js"
	ClientCSS = "elevatebox.css"
)

// ClientFS returns the embedded client files
func ClientFS() fs.FS {
	sub, err := fs.Sub(clientFS, "client")
	if err != nil {
		panic(err)
	}
	return sub
}

// GetClientJS returns the island client script
func GetClientJS() ([]byte, error) {
	return clientFS.ReadFile("client/" + ClientJS)
}

// GetClientCSS returns the site stylesheet
func GetClientCSS() ([]byte, error) {
	return clientFS.ReadFile("client/" + ClientCSS)
}

// Layouts parses the page layouts. Each layout is a named template
// ("default", "bare") that expects a server.PageData value.
func Layouts() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
