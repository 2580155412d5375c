package ui

import (
	"bytes"
	"html/template"
	"log"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

var funcMap = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"num": func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	},
	"fixed": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 2, 64)
	},
	"pct": func(f float64) string {
		return strconv.FormatFloat(f*100, 'f', 0, 64) + "%"
	},
	"upper": strings.ToUpper,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// renderTemplate executes a template into a buffer so a failure never leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("Template error for %s: %v", templateName, err)
		log.Printf("Template data type: %T", data)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("Error writing template response: %v", err)
	}
}
