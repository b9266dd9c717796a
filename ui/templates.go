package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"regdash/domain/insight"
	"regdash/domain/regression"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"fixed": func(decimals int, v float64) string {
			return fmt.Sprintf("%.*f", decimals, v)
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
		"tierClass": tierClass,
		"stars": func(n int) string {
			return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
		},
		"upper": strings.ToUpper,
		"title": func(k regression.ModelKind) string { return k.Title() },
	}
}

// tierClass maps a significance tier to its badge style
func tierClass(t regression.SignificanceTier) string {
	switch t {
	case regression.TierThree:
		return "tier-3"
	case regression.TierTwo:
		return "tier-2"
	case regression.TierOne:
		return "tier-1"
	}
	return "tier-0"
}

// renderMarkdown turns narrative markdown into HTML. Model replies end up
// here, so raw HTML is dropped and links with unsafe schemes render as text.
func renderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	flags := html.CommonFlags | html.SkipHTML | html.Safelink | html.NofollowLinks | html.NoreferrerLinks
	r := html.NewRenderer(html.RendererOptions{Flags: flags})
	return template.HTML(markdown.ToHTML([]byte(md), p, r))
}

// narrativeHTML renders the three-section narrative of an insight record
func narrativeHTML(rec *insight.Record, dependentVariable string, h insight.Highlights) template.HTML {
	if rec == nil {
		return ""
	}
	return renderMarkdown(insight.Markdown(insight.NarrativeWithHighlights(rec, dependentVariable, h)))
}

// renderTemplate executes a template into a buffer first so a failure never
// leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("[Dashboard] template error for %s (%T): %v", templateName, data, err)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(200)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("[Dashboard] error writing template response: %v", err)
	}
}
