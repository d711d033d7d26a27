// Package uistatic serves the embedded question page.
package uistatic

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed app
var appFS embed.FS

// DefaultExamples are the suggested questions shown beside the input.
var DefaultExamples = []string{
	"Combien de clients avons-nous ?",
	"Quels sont les 5 produits les plus vendus ?",
	"Quel est le chiffre d'affaires du mois dernier ?",
	"Quels clients n'ont pas commandé depuis 3 mois ?",
	"Compare les ventes de janvier et février",
}

type Options struct {
	// AuthRequired shows the service key field on the page.
	AuthRequired bool
	// Examples replaces DefaultExamples when non-empty.
	Examples []string
	// AskPath is where the page posts questions. Defaults to /v1/ask.
	AskPath string
}

type pageConfig struct {
	AskPath      string   `json:"ask_path"`
	AuthRequired bool     `json:"auth_required"`
	Examples     []string `json:"examples"`
}

// Handler serves index.html at the root, the page settings at config.json,
// and the remaining assets by name. Unknown paths are 404s.
func Handler(opts Options) http.Handler {
	sub, err := fs.Sub(appFS, "app")
	if err != nil {
		return http.NotFoundHandler()
	}
	settings := pageConfig{AskPath: opts.AskPath, AuthRequired: opts.AuthRequired, Examples: opts.Examples}
	if settings.AskPath == "" {
		settings.AskPath = "/v1/ask"
	}
	if len(settings.Examples) == 0 {
		settings.Examples = DefaultExamples
	}
	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch name := path.Clean(strings.TrimPrefix(r.URL.Path, "/")); name {
		case ".", "index.html":
			serveFile(w, r, sub, "index.html", "text/html; charset=utf-8")
		case "config.json":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Cache-Control", "no-store")
			_ = json.NewEncoder(w).Encode(settings)
		default:
			if _, err := fs.Stat(sub, name); err != nil {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "no-cache")
			fileServer.ServeHTTP(w, r)
		}
	})
}

func serveFile(w http.ResponseWriter, r *http.Request, filesystem fs.FS, name, contentType string) {
	body, err := fs.ReadFile(filesystem, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(body)
}
