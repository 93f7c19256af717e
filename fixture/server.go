package fixture

import (
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed demo
var demoFS embed.FS

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:1rem}
.ag-body{display:flex}
.ag-center-cols-container,.ag-pinned-left-cols-container,.ag-pinned-right-cols-container{position:relative;min-height:{{.Height}}px}
.ag-row{position:absolute;left:0;right:0;display:flex}
.ag-cell{padding:0 .5rem;min-width:6rem}
.ag-header-row{display:flex}
.ag-header{display:flex}
.ag-header-cell{min-width:6rem;padding:0 .5rem;font-weight:600}
.ag-hidden{display:none}
</style></head><body>
{{.Body}}
</body></html>`))

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><title>gridsnap fixture</title></head><body>
<h1>gridsnap fixture</h1>
<ul>
<li><a href="/grid">Server-rendered grid</a> ({{.Rows}} rows, {{.PageSize}} per page)</li>
<li><a href="/demo/">ag-Grid demo</a></li>
<li><a href="/data.json">data.json</a></li>
</ul>
</body></html>`))

// Router returns the fixture HTTP routes.
func Router(logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(HeadToGet)
	r.Use(SecurityHeaders(DefaultHeaders()))

	r.Get("/", handleIndex)
	r.Get("/grid", handleGrid)
	r.Get("/data.json", handleData)

	demo, err := fs.Sub(demoFS, "demo")
	if err != nil {
		panic("fixture: demo assets: " + err.Error())
	}
	r.Handle("/demo/*", http.StripPrefix("/demo", http.FileServerFS(demo)))
	r.Get("/demo", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/demo/", http.StatusMovedPermanently)
	})
	return r
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexTmpl.Execute(w, struct{ Rows, PageSize int }{len(Cars()), PageSize})
}

func handleGrid(w http.ResponseWriter, r *http.Request) {
	v := ParseView(r.URL.Query())
	body, err := Render(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pageTmpl.Execute(w, struct {
		Title  string
		Height int
		Body   template.HTML
	}{
		Title:  "Cars",
		Height: PageSize * rowHeight,
		Body:   template.HTML(body),
	})
}

func handleData(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Cars())
}
