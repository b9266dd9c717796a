package ui

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"regdash/adapters/excel"
	"regdash/domain/core"
	"regdash/domain/dashboard"
	"regdash/internal/errors"
)

type kindRequest struct {
	Kind string `json:"kind" form:"kind" binding:"required"`
}

type variableRequest struct {
	Variable string `json:"variable" form:"variable" binding:"required"`
}

func (s *Server) handleVariables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variables": s.dashboard.Catalog()})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	st, err := s.dashboard.NewSession(c.Request.Context())
	s.respond(c, http.StatusCreated, st, err)
}

func (s *Server) handleGetSession(c *gin.Context) {
	s.withSession(c, s.dashboard.Get)
}

func (s *Server) handleSetKind(c *gin.Context) {
	var req kindRequest
	if !s.bind(c, &req) {
		return
	}
	s.withSession(c, func(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
		return s.dashboard.SetKind(ctx, id, req.Kind)
	})
}

func (s *Server) handleSetDependent(c *gin.Context) {
	var req variableRequest
	if !s.bind(c, &req) {
		return
	}
	s.withSession(c, func(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
		return s.dashboard.SetDependent(ctx, id, req.Variable)
	})
}

func (s *Server) handleAddIndependent(c *gin.Context) {
	var req variableRequest
	if !s.bind(c, &req) {
		return
	}
	s.withSession(c, func(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
		return s.dashboard.AddIndependent(ctx, id, req.Variable)
	})
}

func (s *Server) handleRemoveIndependent(c *gin.Context) {
	name := c.Param("name")
	s.withSession(c, func(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
		return s.dashboard.RemoveIndependent(ctx, id, name)
	})
}

func (s *Server) handleAdvance(c *gin.Context) {
	s.withSession(c, s.dashboard.Advance)
}

func (s *Server) handleBack(c *gin.Context) {
	s.withSession(c, s.dashboard.Back)
}

// handleInsights generates insights; ?async=1 returns at once with the
// pending flag set and the page polls
func (s *Server) handleInsights(c *gin.Context) {
	if async, _ := strconv.ParseBool(c.Query("async")); async {
		id, ok := s.sessionID(c)
		if !ok {
			return
		}
		st, err := s.dashboard.StartInsights(c.Request.Context(), id)
		s.respond(c, http.StatusAccepted, st, err)
		return
	}
	s.withSession(c, s.dashboard.GenerateInsights)
}

func (s *Server) handleCloseInsights(c *gin.Context) {
	s.withSession(c, s.dashboard.CloseInsights)
}

// handleExport streams the results as an xlsx workbook. Query parameters
// title, decimals, significance and stats override the table defaults.
func (s *Server) handleExport(c *gin.Context) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}
	st, err := s.dashboard.Get(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if st.Result == nil {
		s.renderError(c, errors.InvalidTransition("nothing to export; advance to the results step first"))
		return
	}

	opts, err := s.tableOptions(c)
	if err != nil {
		s.renderError(c, err)
		return
	}

	f, err := excel.NewExporter(opts).Workbook(st.Result, st.Insights)
	if err != nil {
		s.renderError(c, errors.Wrap(err, "build workbook"))
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", exportDisposition(st.Config.DependentVariable))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// exportDisposition names the download after the dependent variable, quoted
// so catalog names cannot break the header
func exportDisposition(dependentVariable string) string {
	v := mime.FormatMediaType("attachment", map[string]string{"filename": "regression-" + dependentVariable + ".xlsx"})
	if v == "" {
		return `attachment; filename="regression.xlsx"`
	}
	return v
}

func (s *Server) tableOptions(c *gin.Context) (excel.TableOptions, error) {
	opts := s.table
	if title, ok := c.GetQuery("title"); ok {
		opts.Title = title
	}
	if v, ok := c.GetQuery("decimals"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > excel.MaxDecimals {
			return opts, errors.InvalidInput("decimals must be between 1 and " + strconv.Itoa(excel.MaxDecimals))
		}
		opts.Decimals = n
	}
	for key, dst := range map[string]*bool{"significance": &opts.ShowSignificance, "stats": &opts.IncludeModelStats} {
		if v, ok := c.GetQuery(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.InvalidInput(key + " must be a boolean")
			}
			*dst = b
		}
	}
	return opts, nil
}

func (s *Server) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBind(dst); err != nil {
		s.renderError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func (s *Server) withSession(c *gin.Context, fn func(context.Context, core.SessionID) (*dashboard.State, error)) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}
	st, err := fn(c.Request.Context(), id)
	s.respond(c, http.StatusOK, st, err)
}

func (s *Server) respond(c *gin.Context, status int, st *dashboard.State, err error) {
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(status, newSessionView(st))
}
