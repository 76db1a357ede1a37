package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the screens of the watch; each gets its own clone of the
// layout so {{define "content"}} blocks do not collide.
var pageNames = []string{"home", "breathing", "settings"}

// templates holds one parsed template set per page.
type templates struct {
	pages map[string]*template.Template
}

func loadTemplates() (*templates, error) {
	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
	base, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("ui: parse layout: %w", err)
	}

	t := &templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("ui: clone layout for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("ui: parse %s: %w", name, err)
		}
		t.pages[name] = clone
	}
	return t, nil
}

// render executes the layout of page with data.
func (t *templates) render(w io.Writer, page string, data interface{}) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("ui: template %q not found", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
