// Package site renders the static portfolio site from the profile and the
// tracked jobs, and publishes the pages to the object store. A web server
// or CDN in front of the bucket serves them as-is; nothing here is dynamic.
package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"os"
	"path"
	"time"

	"github.com/jobdeck/jobdeck/internal/careerdb/objstore"
	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
	"github.com/jobdeck/jobdeck/internal/profile"
)

// Builder renders and publishes the portfolio.
type Builder struct {
	store  objstore.Client
	prefix string
	logger *log.Logger
}

// NewBuilder creates a builder publishing under the given key prefix
// (e.g. "site/"). If logger is nil, a default logger writing to stderr is
// used.
func NewBuilder(store objstore.Client, prefix string, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(os.Stderr, "[site] ", log.LstdFlags)
	}
	return &Builder{store: store, prefix: prefix, logger: logger}
}

// pageData is the template context shared by all pages.
type pageData struct {
	Profile     *profile.Profile
	Jobs        []*schema.Job
	GeneratedAt time.Time
}

// Render produces every page keyed by file name.
func (b *Builder) Render(prof *profile.Profile, jobs []*schema.Job) (map[string][]byte, error) {
	data := pageData{
		Profile:     prof,
		Jobs:        jobs,
		GeneratedAt: time.Now().UTC(),
	}

	pages := make(map[string][]byte)
	for name, tmpl := range templates {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", name, err)
		}
		pages[name] = buf.Bytes()
	}
	return pages, nil
}

// Publish renders the site and uploads every page. Returns the number of
// pages published.
func (b *Builder) Publish(ctx context.Context, prof *profile.Profile, jobs []*schema.Job) (int, error) {
	pages, err := b.Render(prof, jobs)
	if err != nil {
		return 0, err
	}

	published := 0
	for name, content := range pages {
		key := path.Join(b.prefix, name)
		if err := b.store.Put(ctx, key, content); err != nil {
			return published, fmt.Errorf("failed to publish %s: %w", key, err)
		}
		published++
	}

	b.logger.Printf("Published %d pages under %s", published, b.prefix)
	return published, nil
}

var templates = map[string]*template.Template{
	"index.html": template.Must(template.New("index.html").Parse(indexTemplate)),
	"jobs.html":  template.Must(template.New("jobs.html").Parse(jobsTemplate)),
}

const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Profile.Name}}</title>
</head>
<body>
<h1>{{.Profile.Name}}</h1>
{{if .Profile.Headline}}<p>{{.Profile.Headline}}</p>{{end}}
{{if .Profile.Summary}}<p>{{.Profile.Summary}}</p>{{end}}
{{if .Profile.Links}}<ul>
{{range $label, $url := .Profile.Links}}<li><a href="{{$url}}">{{$label}}</a></li>
{{end}}</ul>{{end}}
{{if .Profile.Skills}}<h2>Skills</h2>
<ul>
{{range .Profile.Skills}}<li>{{.Name}}{{if .Category}} ({{.Category}}){{end}}</li>
{{end}}</ul>{{end}}
{{if .Profile.Experiences}}<h2>Experience</h2>
<ul>
{{range .Profile.Experiences}}<li>{{.Role}}, {{.Employer}}</li>
{{end}}</ul>{{end}}
<footer><small>Generated {{.GeneratedAt.Format "2006-01-02"}}</small></footer>
</body>
</html>
`

const jobsTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Job pipeline</title>
</head>
<body>
<h1>Job pipeline</h1>
<table>
<tr><th>Company</th><th>Title</th><th>Status</th><th>Fit</th></tr>
{{range .Jobs}}<tr><td>{{.Company}}</td><td>{{.Title}}</td><td>{{.Status}}</td><td>{{if .FitScore}}{{.FitScore}}{{end}}</td></tr>
{{end}}</table>
<footer><small>Generated {{.GeneratedAt.Format "2006-01-02"}}</small></footer>
</body>
</html>
`
