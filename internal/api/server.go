package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/quill/internal/history"
	"github.com/samcharles93/quill/internal/inference"
	"github.com/samcharles93/quill/internal/logger"
	"github.com/samcharles93/quill/internal/presets"
	"github.com/samcharles93/quill/internal/version"
)

const downloadFilename = "generated_text.txt"

type Server struct {
	store   history.Store
	service *GenerationService
}

func NewServer(store history.Store, service *GenerationService) *Server {
	if store == nil {
		store = history.NewMemory()
	}
	return &Server{
		store:   store,
		service: service,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/generations", s.handleCreateGeneration)
	e.GET("/v1/generations", s.handleListGenerations)
	e.GET("/v1/generations/:id", s.handleGetGeneration)
	e.GET("/v1/generations/:id/download", s.handleDownloadGeneration)
	e.DELETE("/v1/generations/:id", s.handleDeleteGeneration)

	e.GET("/v1/themes", s.handleThemes)
	e.GET("/v1/prompts/random", s.handleRandomPrompt)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleCreateGeneration(c *echo.Context) error {
	if s.service == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "generation service not configured", "", "")
	}
	req, err := decodeJSON[GenerationRequest](c.Request().Body)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return writeBadRequest(c, "", "request body is required")
		}
		return writeBadRequest(c, "", err.Error())
	}

	ctx := c.Request().Context()
	rec, err := s.service.Create(ctx, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return writeBadRequest(c, requestParam(err), err.Error())
		}
		logger.FromContext(ctx).Error("generation failed", "error", err)
		body := ErrorResponse{Error: ResponseError{Message: err.Error(), Type: "server_error"}}
		var gerr *GenerationError
		if errors.As(err, &gerr) {
			body.PartialText = gerr.PartialText
		}
		return c.JSON(http.StatusInternalServerError, body)
	}

	if req.Store == nil || *req.Store {
		if err := s.store.Save(rec); err != nil {
			return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
		}
	}
	return c.JSON(http.StatusOK, toGeneration(rec))
}

func (s *Server) handleListGenerations(c *echo.Context) error {
	limit := 0
	if q := c.QueryParam("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			return writeBadRequest(c, "limit", "limit must be a non-negative integer")
		}
		limit = n
	}
	recs, err := s.store.List(limit)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	data := make([]Generation, 0, len(recs))
	for _, rec := range recs {
		data = append(data, toGeneration(rec))
	}
	return c.JSON(http.StatusOK, GenerationList{Object: "list", Data: data})
}

func (s *Server) lookup(c *echo.Context) (history.Record, bool, error) {
	id := c.Param("id")
	if id == "" {
		return history.Record{}, false, writeNotFound(c, "generation not found")
	}
	rec, err := s.store.Get(id)
	if errors.Is(err, history.ErrNotFound) {
		return history.Record{}, false, writeNotFound(c, "generation not found")
	}
	if err != nil {
		return history.Record{}, false, writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	return rec, true, nil
}

func (s *Server) handleGetGeneration(c *echo.Context) error {
	rec, ok, err := s.lookup(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, toGeneration(rec))
}

func (s *Server) handleDownloadGeneration(c *echo.Context) error {
	rec, ok, err := s.lookup(c)
	if !ok {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+downloadFilename+`"`)
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(rec.Text))
}

func (s *Server) handleDeleteGeneration(c *echo.Context) error {
	id := c.Param("id")
	err := s.store.Delete(id)
	if errors.Is(err, history.ErrNotFound) {
		return writeNotFound(c, "generation not found")
	}
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	return c.JSON(http.StatusOK, DeleteResponse{ID: id, Object: "generation", Deleted: true})
}

func (s *Server) handleThemes(c *echo.Context) error {
	return c.JSON(http.StatusOK, ThemeList{
		Object:  "list",
		Data:    presets.Themes(),
		Prompts: presets.Prompts(),
	})
}

func (s *Server) handleRandomPrompt(c *echo.Context) error {
	return c.JSON(http.StatusOK, RandomPrompt{Object: "prompt", Prompt: presets.RandomPrompt(nil)})
}

func (s *Server) handleHealth(c *echo.Context) error {
	body := map[string]any{"status": "ok", "version": version.String()}
	if s.service != nil {
		if e, ok := s.service.engine.(interface{ Info() inference.Info }); ok {
			body["engine"] = e.Info()
		}
	}
	return c.JSON(http.StatusOK, body)
}
