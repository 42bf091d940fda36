// Package render turns a newsletter context into the final HTML
// document using the Liquid template language.
package render

import (
	"fmt"
	"os"

	"github.com/osteele/liquid"

	"github.com/ignite/jellyfin-newsletter/internal/newsletter"
)

// Service renders newsletters from a Liquid template compiled once at
// startup.
type Service struct {
	engine *liquid.Engine
	tmpl   *liquid.Template
}

// NewService parses the template file and returns a ready renderer
func NewService(templatePath string) (*Service, error) {
	src, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", templatePath, err)
	}

	engine := liquid.NewEngine()
	tmpl, err := engine.ParseTemplate(src)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", templatePath, err)
	}

	return &Service{engine: engine, tmpl: tmpl}, nil
}

// Render produces the HTML newsletter for one recipient
func (s *Service) Render(ctx newsletter.Context) (string, error) {
	entries := make([]map[string]interface{}, 0, len(ctx.Entries))
	for _, e := range ctx.Entries {
		entries = append(entries, map[string]interface{}{
			"title":       e.Title,
			"url":         e.URL,
			"imageUrl":    e.ImageURL,
			"description": e.Description,
		})
	}

	bindings := map[string]interface{}{
		"entries":  entries,
		"date":     ctx.Date,
		"imageUrl": ctx.ImageURL,
		"baseUrl":  ctx.BaseURL,
	}

	out, err := s.tmpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("rendering newsletter: %w", err)
	}
	return out, nil
}
