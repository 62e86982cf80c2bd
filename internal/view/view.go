// Package view renders the server-side HTML pages.
//
// Every page combines templates/base.html, templates/{name}.html and all
// templates/partials/*.html. The page template defines a "content" block
// that base.html places inside the layout.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/labstack/echo/v4"

	apperrors "bienesraices/internal/errors"
)

//go:embed templates
var templateFS embed.FS

const baseFilename = "base.html"

// View names.
const (
	Login         = "login"
	Register      = "registro"
	Confirm       = "confirmar"
	Recover       = "recuperar"
	ResetPassword = "actualizar-password"
	Message       = "mensaje"
	Error         = "error"
	MyProperties  = "mis-propiedades"
)

var allViews = []string{Login, Register, Confirm, Recover, ResetPassword, Message, Error, MyProperties}

// Data is what every page receives.
type Data struct {
	Page      string
	CSRFToken string
	// Errors are shown above the form, one entry per failed rule.
	Errors []apperrors.FieldError
	// Form holds submitted values to refill the form. Secrets are never put here.
	Form    map[string]string
	Message string
	// Failed marks a Confirm page reporting an error.
	Failed bool
	Data   any
}

// Renderer implements echo.Renderer over the embedded templates. All views
// are parsed once at construction.
type Renderer struct {
	views map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

// NewRenderer parses every view.
func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}

	r := &Renderer{views: make(map[string]*template.Template, len(allViews))}
	for _, name := range allViews {
		tmpl, err := parse(sub, name)
		if err != nil {
			return nil, err
		}
		r.views[name] = tmpl
	}
	return r, nil
}

// Render writes the named view.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.views[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}
	return tmpl.Execute(w, data)
}

func parse(viewFS fs.FS, name string) (*template.Template, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	files := []string{baseFilename, name + ".html"}
	partials, err := fs.Glob(viewFS, "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob partials: %w", err)
	}
	files = append(files, partials...)

	tmpl, err := template.New(baseFilename).ParseFS(viewFS, files...)
	if err != nil {
		return nil, fmt.Errorf("parse view %s: %w", name, err)
	}
	return tmpl, nil
}

// validateName checks that name only holds letters, digits, dashes or underscores.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty view name")
	}
	for _, c := range name {
		if c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return fmt.Errorf("invalid character %q in view name %q", c, name)
	}
	return nil
}
