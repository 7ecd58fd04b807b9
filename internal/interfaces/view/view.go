package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates
var content embed.FS

// SharedLocal is the Locals key holding props merged into every page.
const SharedLocal = "view_shared"

const inertiaHeader = "X-Inertia"

// Renderer turns a component name and its props into a response.
type Renderer interface {
	Render(c *fiber.Ctx, component string, props fiber.Map) error
}

// Page is the JSON page object and the root data of every HTML template.
type Page struct {
	Component string    `json:"component"`
	Props     fiber.Map `json:"props"`
	URL       string    `json:"url"`
	Version   string    `json:"version"`
}

// Engine renders JSON page objects for XHR clients and embedded HTML
// templates for browsers.
type Engine struct {
	Version   string
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money": func(v float64) string {
			return formatMoney(v)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
}

// New parses every page template in templates/ together with the layout.
// A page named Businesses.html renders the component "Businesses".
func New(version string) (*Engine, error) {
	tfs, err := fs.Sub(content, "templates")
	if err != nil {
		return nil, err
	}
	layout, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}
	pages, err := fs.Glob(tfs, "*.html")
	if err != nil {
		return nil, err
	}

	e := &Engine{Version: version, templates: make(map[string]*template.Template)}
	for _, page := range pages {
		if page == "layout.html" {
			continue
		}
		body, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}
		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		e.templates[strings.TrimSuffix(page, path.Ext(page))] = tmpl
	}
	return e, nil
}

// Render writes component with props merged over the shared props.
func (e *Engine) Render(c *fiber.Ctx, component string, props fiber.Map) error {
	page := Page{
		Component: component,
		Props:     merge(Shared(c), props),
		URL:       c.OriginalURL(),
		Version:   e.Version,
	}
	c.Vary(inertiaHeader)
	if WantsJSON(c) {
		if c.Get(inertiaHeader) != "" {
			c.Set(inertiaHeader, "true")
		}
		return c.JSON(page)
	}

	tmpl, ok := e.templates[component]
	if !ok {
		return fmt.Errorf("view %q not found", component)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", component, err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// WantsJSON reports whether the client asked for JSON: an X-Inertia request,
// a JSON body or an Accept header preferring JSON over HTML.
func WantsJSON(c *fiber.Ctx) bool {
	if c.Get(inertiaHeader) == "true" || c.Is("json") {
		return true
	}
	accept := c.Get(fiber.HeaderAccept)
	return accept != "" && c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// Share adds a prop to every page rendered for this request.
func Share(c *fiber.Ctx, key string, v interface{}) {
	m, _ := c.Locals(SharedLocal).(fiber.Map)
	if m == nil {
		m = fiber.Map{}
		c.Locals(SharedLocal, m)
	}
	m[key] = v
}

// Shared returns the props shared so far, never nil.
func Shared(c *fiber.Ctx) fiber.Map {
	if m, ok := c.Locals(SharedLocal).(fiber.Map); ok {
		return m
	}
	return fiber.Map{}
}

func merge(shared, props fiber.Map) fiber.Map {
	out := make(fiber.Map, len(shared)+len(props))
	for k, v := range shared {
		out[k] = v
	}
	for k, v := range props {
		out[k] = v
	}
	return out
}

func formatMoney(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String() + frac
	}
	return b.String() + frac
}
