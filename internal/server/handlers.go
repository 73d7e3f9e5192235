// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/archive"
	"github.com/pdiddy/research-assistant/internal/chat"
	"github.com/pdiddy/research-assistant/internal/session"
	"github.com/pdiddy/research-assistant/pkg/types"
)

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

// selectRequest picks papers by key or by 1-based position in the results.
type selectRequest struct {
	Keys    []string `json:"keys"`
	Indexes []int    `json:"indexes"`
}

type chatRequest struct {
	Question string `json:"question" binding:"required"`
	Stream   bool   `json:"stream"`
}

type resultView struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	types.PaperRecord
}

type sessionView struct {
	ID           string                   `json:"id"`
	Query        string                   `json:"query,omitempty"`
	RefinedQuery string                   `json:"refined_query,omitempty"`
	Results      []resultView             `json:"results"`
	Selected     []string                 `json:"selected"`
	Comparison   *types.ComparisonInsight `json:"comparison,omitempty"`
	Messages     []types.ChatMessage      `json:"messages"`
}

func view(id string, sess *session.Session) sessionView {
	v := sessionView{
		ID:           id,
		Query:        sess.Query,
		RefinedQuery: sess.RefinedQuery,
		Results:      make([]resultView, len(sess.Found)),
		Selected:     append([]string{}, sess.Selected...),
		Comparison:   sess.Comparison,
		Messages:     append([]types.ChatMessage{}, sess.Messages...),
	}
	for i, p := range sess.Found {
		v.Results[i] = resultView{Index: i + 1, Key: p.Key(), PaperRecord: p}
	}
	return v
}

type sessionHandler func(c *gin.Context, id string, sess *session.Session)

// withSession resolves :id and runs h while holding the session lock.
func (s *Server) withSession(h sessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		e, n, ok := s.sessions.get(id)
		if !ok {
			s.metrics.SetSessions(n)
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		h(c, id, e.session)
	}
}

func (s *Server) createSession(c *gin.Context) {
	id, n := s.sessions.create()
	s.metrics.SetSessions(n)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) deleteSession(c *gin.Context) {
	ok, n := s.sessions.remove(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	s.metrics.SetSessions(n)
	c.Status(http.StatusNoContent)
}

func (s *Server) getSession(c *gin.Context, id string, sess *session.Session) {
	c.JSON(http.StatusOK, view(id, sess))
}

func (s *Server) search(c *gin.Context, id string, sess *session.Session) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.pipeline.Search(c.Request.Context(), sess, req.Query); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view(id, sess))
}

func (s *Server) selectPapers(c *gin.Context, id string, sess *session.Session) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var err error
	switch {
	case len(req.Keys) > 0 && len(req.Indexes) > 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "send keys or indexes, not both"})
		return
	case len(req.Indexes) > 0:
		err = sess.SelectIndexes(req.Indexes)
	default:
		err = sess.Select(req.Keys)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view(id, sess))
}

func (s *Server) analyze(c *gin.Context, id string, sess *session.Session) {
	ctx := c.Request.Context()
	if err := s.pipeline.Analyze(ctx, sess); err != nil {
		s.fail(c, err)
		return
	}
	report := sess.Report()
	if s.archive != nil {
		err := s.archive.Save(ctx, archive.Analysis{
			Query:      report.Query,
			Papers:     report.Papers,
			Comparison: report.Comparison,
		})
		if err != nil {
			s.logger.Warn("archiving analysis failed", zap.String("session", id), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) chat(c *gin.Context, id string, sess *session.Session) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := c.Request.Context()

	if !req.Stream {
		answer, err := s.pipeline.Ask(ctx, sess, req.Question, nil)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer})
		return
	}

	// Validation errors must be reported before the event stream starts.
	switch {
	case strings.TrimSpace(req.Question) == "":
		s.fail(c, session.ErrEmptyQuestion)
		return
	case sess.ChatContext == "":
		s.fail(c, session.ErrNotAnalyzed)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	answer, err := s.pipeline.Ask(ctx, sess, req.Question, func(tok string) {
		c.SSEvent("token", tok)
		c.Writer.Flush()
	})
	switch {
	case err != nil:
		c.SSEvent("error", err.Error())
	case chat.IsError(answer):
		c.SSEvent("error", answer)
	default:
		c.SSEvent("done", answer)
	}
}

func (s *Server) downloadInsight(c *gin.Context, _ string, sess *session.Session) {
	p, ok := sess.Record(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}
	if p.Insight == nil {
		c.JSON(http.StatusConflict, gin.H{"error": session.ErrNotAnalyzed.Error()})
		return
	}
	s.attachment(c, fmt.Sprintf("insight_%s.json", strings.ReplaceAll(p.ID, "/", "_")), p.Insight)
}

func (s *Server) downloadComparison(c *gin.Context, _ string, sess *session.Session) {
	if sess.Comparison == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no comparison available"})
		return
	}
	s.attachment(c, "comparison_insight.json", sess.Comparison)
}

func (s *Server) attachment(c *gin.Context, filename string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encoding failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", data)
}

// fail maps session errors to HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrEmptyQuery),
		errors.Is(err, session.ErrEmptyQuestion),
		errors.Is(err, session.ErrNoSelection),
		errors.Is(err, session.ErrTooManySelections),
		errors.Is(err, session.ErrDuplicateSelection),
		errors.Is(err, session.ErrUnknownPaper):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotAnalyzed):
		status = http.StatusConflict
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
