package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/jellyfin-newsletter/internal/newsletter"
)

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "body.html.liquid")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRender(t *testing.T) {
	path := writeTemplate(t, `<h1>{{ date }}</h1>{% for entry in entries %}<a href="{{ entry.url }}">{{ entry.title }}</a><p>{{ entry.description }}</p>{% endfor %}`)

	svc, err := NewService(path)
	require.NoError(t, err)

	out, err := svc.Render(newsletter.Context{
		Date: "Mon Aug 31 2026",
		Entries: []newsletter.Entry{
			{Title: "New Movie Heat (1995)", URL: "https://media.example.com/details/1", Description: "Crime."},
			{Title: "New Episode: Dark - Pilot", URL: "https://media.example.com/details/2"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "<h1>Mon Aug 31 2026</h1>")
	assert.Contains(t, out, `<a href="https://media.example.com/details/1">New Movie Heat (1995)</a>`)
	assert.Contains(t, out, "<p>Crime.</p>")

	// Entries render in input order.
	assert.Less(t, strings.Index(out, "Heat"), strings.Index(out, "Dark"))
}

func TestRenderShippedTemplate(t *testing.T) {
	svc, err := NewService(filepath.Join("..", "..", "templates", "body.html.liquid"))
	require.NoError(t, err)

	out, err := svc.Render(newsletter.Context{
		Date:     "Mon Aug 31 2026",
		ImageURL: "https://media.example.com/web/assets/img/banner-dark.png",
		BaseURL:  "https://media.example.com/",
		Entries: []newsletter.Entry{
			{Title: "New Movie Heat (1995)", URL: "https://media.example.com/details/1", ImageURL: "https://media.example.com/img/1", Description: "Crime."},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "New Movie Heat (1995)")
	assert.Contains(t, out, "banner-dark.png")
	assert.Contains(t, out, "Mon Aug 31 2026")
}

func TestRenderEmptyEntries(t *testing.T) {
	path := writeTemplate(t, `{% for entry in entries %}{{ entry.title }}{% endfor %}empty ok`)

	svc, err := NewService(path)
	require.NoError(t, err)

	out, err := svc.Render(newsletter.Context{})
	require.NoError(t, err)
	assert.Equal(t, "empty ok", out)
}

func TestNewServiceMissingTemplate(t *testing.T) {
	_, err := NewService("/nonexistent/body.html.liquid")
	assert.Error(t, err)
}

func TestNewServiceBadTemplate(t *testing.T) {
	path := writeTemplate(t, `{% for entry in %}`)
	_, err := NewService(path)
	assert.Error(t, err)
}
