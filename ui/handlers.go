package ui

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"regdash/domain/core"
	"regdash/domain/dashboard"
	"regdash/internal/errors"
	"regdash/ui/middleware"
)

// handleIndex starts a new session and redirects to it
func (s *Server) handleIndex(c *gin.Context) {
	st, err := s.dashboard.NewSession(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/sessions/"+st.ID.String())
}

// handleSessionPage renders the selection or results step
func (s *Server) handleSessionPage(c *gin.Context) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}
	st, err := s.dashboard.Get(c.Request.Context(), id)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			// expired or unknown sessions start over
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		s.renderError(c, err)
		return
	}

	page := "selection.html"
	if st.Step == dashboard.StepResults {
		page = "results.html"
	}
	s.renderTemplate(c, page, newPageData(st, s.dashboard.Catalog()))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// sessionID returns the ID parsed by the SessionID middleware
func (s *Server) sessionID(c *gin.Context) (core.SessionID, bool) {
	id, ok := middleware.GetSessionID(c)
	if !ok {
		s.renderError(c, errors.NotFound("session "+c.Param("id")))
		return "", false
	}
	return id, true
}

// statusFor maps an application error code onto an HTTP status
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInsightsPending, errors.CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[Dashboard] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
