package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/logging"
	"github.com/fyrsmithlabs/notesd/internal/note"
)

// CreateNoteRequest is the request body for POST /api/notes.
type CreateNoteRequest struct {
	Text string `json:"text"`
}

// PatchNoteRequest is the request body for PATCH /api/notes/:id. Omitted
// fields are left unchanged.
type PatchNoteRequest struct {
	Text    *string   `json:"text,omitempty"`
	Summary *string   `json:"summary,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Backend: s.registry.Notes().Name(),
	})
}

func (s *Server) handleListNotes(c echo.Context) error {
	notes, err := s.registry.Notes().List(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, notes)
}

func (s *Server) handleCreateNote(c echo.Context) error {
	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid create request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	n, err := s.registry.Notes().Create(c.Request().Context(), req.Text)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (s *Server) handleGetNote(c echo.Context) error {
	id := c.Param("id")
	n, err := s.registry.Notes().Get(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	if n == nil {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}
	return c.JSON(http.StatusOK, n)
}

func (s *Server) handlePatchNote(c echo.Context) error {
	id := c.Param("id")
	ctx := logging.WithNoteID(c.Request().Context(), id)

	var req PatchNoteRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid patch request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	n, err := s.registry.Notes().Patch(ctx, id, note.Patch{
		Text:    req.Text,
		Summary: req.Summary,
		Tags:    req.Tags,
	})
	if err != nil {
		return toHTTPError(err)
	}
	if n == nil {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}
	return c.JSON(http.StatusOK, n)
}

func (s *Server) handleDeleteNote(c echo.Context) error {
	id := c.Param("id")
	ok, err := s.registry.Notes().Delete(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleEnrichNote(c echo.Context) error {
	n, err := s.registry.EnrichNote(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (s *Server) handleSearch(c echo.Context) error {
	q := note.Query{
		Text: c.QueryParam("q"),
		Tag:  c.QueryParam("tag"),
	}
	notes, err := s.registry.Notes().Search(c.Request().Context(), q)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, notes)
}
