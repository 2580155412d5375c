package ui

import (
	"log"
	"net/http"

	"qareport/adapters/webhook"
	apperrors "qareport/internal/errors"

	"github.com/gin-gonic/gin"
)

type aiReportPage struct {
	Title      string
	Enabled    bool
	Submission webhook.Submission
	Reply      *webhook.Reply
	Notice     string
}

func (s *Server) handleAIReportForm(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "ai_report.html", aiReportPage{
		Title:   "AI Based Report Submission",
		Enabled: s.webhook != nil,
	})
}

// handleAIReportSubmit forwards the form to the webhook and shows the reply
func (s *Server) handleAIReportSubmit(c *gin.Context) {
	page := aiReportPage{Title: "AI Based Report Submission", Enabled: s.webhook != nil}
	if err := c.ShouldBind(&page.Submission); err != nil {
		page.Notice = err.Error()
		s.renderTemplate(c, http.StatusBadRequest, "ai_report.html", page)
		return
	}
	if s.webhook == nil {
		page.Notice = "The AI report endpoint is not configured."
		s.renderTemplate(c, http.StatusServiceUnavailable, "ai_report.html", page)
		return
	}

	reply, err := s.webhook.Submit(c.Request.Context(), page.Submission)
	if err != nil {
		log.Printf("[AIReport] submission failed: %v", err)
		page.Notice = err.Error()
		s.renderTemplate(c, apperrors.HTTPStatus(err), "ai_report.html", page)
		return
	}
	page.Reply = reply
	s.renderTemplate(c, http.StatusOK, "ai_report.html", page)
}
