package ui

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"qareport/adapters/coercer"
	"qareport/adapters/echarts"
	"qareport/internal/aggregate"
	"qareport/internal/chart"
	apperrors "qareport/internal/errors"
	"qareport/internal/report"
	"qareport/internal/session"
	"qareport/ui/middleware"

	"github.com/gin-gonic/gin"
)

// indexPage is the data of the report builder page
type indexPage struct {
	Title          string
	Presets        []report.Preset
	Preset         report.Preset
	State          session.State
	HasTable       bool
	SourceName     string
	Schema         []string
	Profiles       []coercer.ColumnProfile
	Modes          []aggregate.Mode
	ChartKinds     []chart.Kind
	Layouts        []chart.Layout
	HasChart       bool
	Headers        []string
	Rows           [][]string
	RowCount       int
	TotalRows      int
	FilterOptions  []string
	Summary        *aggregate.CategorySummary
	Notice         string
	MaxUploadMB    int
	WebhookEnabled bool
}

func (s *Server) buildIndexPage(state session.State) (*indexPage, error) {
	p := state.Preset()
	page := &indexPage{
		Title:          p.Title,
		Presets:        report.Presets(),
		Preset:         p,
		State:          state,
		Modes:          p.Modes,
		ChartKinds:     p.ChartKinds,
		Layouts:        []chart.Layout{chart.LayoutPerCategory, chart.LayoutGrouped},
		Notice:         state.Notice,
		MaxUploadMB:    s.config.Server.MaxUploadMB,
		WebhookEnabled: s.webhook != nil,
	}
	if !state.HasTable() {
		return page, nil
	}

	t := state.Table
	page.HasTable = true
	page.SourceName = t.SourceName
	page.Schema = t.Schema
	page.Headers = t.Schema
	page.TotalRows = t.Len()
	page.Profiles = s.coercer.ProfileTable(t)

	view, err := state.View()
	if err != nil {
		return page, err
	}
	page.HasChart = view.HasChart()
	page.Rows = t.DisplayRows(view.Rows)
	page.RowCount = len(view.Rows)
	page.FilterOptions = view.FilterOptions

	if view.Distribution != nil && state.Filter.Active() && state.Filter.Column == state.Spec.GroupColumn {
		if summary, err := aggregate.Summarize(view.Distribution, state.Filter.Value); err == nil {
			page.Summary = &summary
		}
	}
	return page, nil
}

// renderIndex renders the page; a notice or a view error is shown as a blocking message
func (s *Server) renderIndex(c *gin.Context, status int, state session.State, notice string) {
	page, err := s.buildIndexPage(state)
	if err != nil {
		log.Printf("[Report] view failed: %v", err)
		status = apperrors.HTTPStatus(err)
		page.Notice = err.Error()
	}
	if notice != "" {
		page.Notice = notice
	}
	s.renderTemplate(c, status, "index.html", page)
}

// fail re-renders the page with the error; the session state is whatever the store kept
func (s *Server) fail(c *gin.Context, state session.State, err error) {
	log.Printf("[Report] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	s.renderIndex(c, apperrors.HTTPStatus(err), state, err.Error())
}

// current loads the session state; an expired session gets a fresh one
func (s *Server) current(c *gin.Context) session.State {
	state, err := s.store.Get(middleware.SessionID(c))
	if err != nil {
		return session.New(report.KindData)
	}
	return state
}

func (s *Server) update(c *gin.Context, fn func(session.State) (session.State, error)) (session.State, error) {
	return s.store.Update(middleware.SessionID(c), fn)
}

func (s *Server) handleIndex(c *gin.Context) {
	state := s.current(c)
	if kind := report.Kind(c.Query("kind")); kind != "" && kind != state.Kind {
		next, err := s.update(c, func(st session.State) (session.State, error) {
			return st.WithKind(kind)
		})
		if err != nil {
			s.fail(c, state, err)
			return
		}
		state = next
	}
	s.renderIndex(c, http.StatusOK, state, "")
}

func (s *Server) handleUpload(c *gin.Context) {
	state := s.current(c)
	limit := s.config.Server.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) || fh != nil && fh.Size > limit {
			s.renderIndex(c, http.StatusRequestEntityTooLarge, state,
				fmt.Sprintf("file exceeds the %d MB upload limit", s.config.Server.MaxUploadMB))
			return
		}
		s.fail(c, state, apperrors.ValidationError("choose a CSV or XLSX file to upload"))
		return
	}
	if fh.Size > limit {
		s.renderIndex(c, http.StatusRequestEntityTooLarge, state,
			fmt.Sprintf("file exceeds the %d MB upload limit", s.config.Server.MaxUploadMB))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, state, apperrors.Wrap(err, "failed to open upload"))
		return
	}
	defer f.Close()

	start := time.Now()
	t, err := s.reader.Ingest(fh.Filename, f)
	if err != nil {
		s.fail(c, state, err)
		return
	}
	if _, err := s.update(c, func(st session.State) (session.State, error) {
		return st.WithTable(t), nil
	}); err != nil {
		s.fail(c, state, err)
		return
	}
	log.Printf("[Upload] %s: %d rows, %d columns in %dms", fh.Filename, t.Len(), len(t.Schema), time.Since(start).Milliseconds())
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleAggregate(c *gin.Context) {
	var req session.AggregateRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, s.current(c), apperrors.InvalidInput(err.Error()))
		return
	}
	state, err := s.update(c, func(st session.State) (session.State, error) {
		return st.Aggregate(req)
	})
	if err != nil {
		s.fail(c, state, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleFilter(c *gin.Context) {
	column, value := c.PostForm("column"), c.PostForm("value")
	state, err := s.update(c, func(st session.State) (session.State, error) {
		if column == "" {
			column = st.Spec.FilterColumn()
		}
		if value == "" {
			return st.ClearFilter(), nil
		}
		return st.SetFilter(column, value)
	})
	if err != nil {
		s.fail(c, state, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// handleClick takes either labels (series, category) or positions (series_index, category_index)
func (s *Server) handleClick(c *gin.Context) {
	state, err := s.update(c, func(st session.State) (session.State, error) {
		if c.Query("series_index") != "" || c.Query("category_index") != "" {
			si, err1 := strconv.Atoi(c.Query("series_index"))
			ci, err2 := strconv.Atoi(c.Query("category_index"))
			if err1 != nil || err2 != nil {
				return st, apperrors.InvalidInput("series_index and category_index must be integers")
			}
			return st.ClickAt(chart.Click{SeriesIndex: si, CategoryIndex: ci})
		}
		return st.Click(c.Query("series"), c.Query("category"))
	})
	if err != nil {
		s.fail(c, state, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleClearFilter(c *gin.Context) {
	if _, err := s.update(c, func(st session.State) (session.State, error) {
		return st.ClearFilter(), nil
	}); err != nil {
		s.fail(c, s.current(c), err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleExport(c *gin.Context) {
	state := s.current(c)
	doc, filename, err := state.Export(s.config.Report.Title, s.config.Report.Assets())
	if err != nil {
		s.fail(c, state, err)
		return
	}
	log.Printf("[Export] %s: %d bytes", filename, len(doc))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}

// handleChart renders the live chart page shown inside the report builder
func (s *Server) handleChart(c *gin.Context) {
	state := s.current(c)
	view, err := state.View()
	if err != nil {
		c.String(apperrors.HTTPStatus(err), err.Error())
		return
	}
	if !view.HasChart() {
		c.String(http.StatusNotFound, "No chart available")
		return
	}

	clickURL := ""
	if view.Preset.ClickFilter {
		clickURL = "/report/click"
	}
	var buf bytes.Buffer
	if err := echarts.Render(&buf, view.Dataset, state.ChartKind, echarts.Options{
		Title:    view.Preset.Title,
		Width:    "100%",
		ClickURL: clickURL,
	}); err != nil {
		c.String(apperrors.HTTPStatus(err), err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
