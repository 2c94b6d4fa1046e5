package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/existflow/irontrack/internal/codec"
	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/display"
	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/timing"
	"github.com/existflow/irontrack/internal/transfer"
)

// maxHandoffSize bounds POST /handoff bodies
const maxHandoffSize = 4 << 20

// TaskResponse is the JSON view of a task
type TaskResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Done            bool   `json:"done"`
	Project         int64  `json:"project"`
	Section         int64  `json:"section"`
	Position        int32  `json:"position"`
	Suspended       bool   `json:"suspended"`
	Parent          int64  `json:"parent"`
	Description     string `json:"description"`
	Date            int64  `json:"date"`
	Duration        int64  `json:"duration"`
	LiveDuration    int64  `json:"live_duration"`
	DurationDisplay string `json:"duration_display"`
	DateDisplay     string `json:"date_display,omitempty"`
}

func (s *Server) handleTask(c echo.Context) error {
	task, err := s.loadTask(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	duration, err := s.timing.Duration(ctx, task)
	if err != nil {
		return timingError(err)
	}
	live, err := s.timing.LiveDuration(ctx, task)
	if err != nil {
		return timingError(err)
	}

	return c.JSON(http.StatusOK, TaskResponse{
		ID:              task.ID(),
		Name:            task.Name(),
		Done:            task.Done(),
		Project:         task.Project(),
		Section:         task.Section(),
		Position:        task.Position(),
		Suspended:       task.Suspended(),
		Parent:          task.Parent(),
		Description:     task.Description(),
		Date:            task.Date(),
		Duration:        duration,
		LiveDuration:    live,
		DurationDisplay: model.FormatDuration(duration),
		DateDisplay:     display.TaskDate(task, s.opts.Now(), s.opts.Locale),
	})
}

// handleVariant returns the task and its subtree as a variant list
func (s *Server) handleVariant(c echo.Context) error {
	task, err := s.loadTask(c)
	if err != nil {
		return err
	}

	tasks, err := s.db.Subtree(c.Request().Context(), task.ID())
	if err != nil {
		return err
	}
	payload, err := codec.EncodeList(tasks)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, codec.ContentType, payload)
}

// handleHandoff compares a pushed variant list against the store. Nothing is
// written.
func (s *Server) handleHandoff(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxHandoffSize))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	tasks, ok := codec.DecodeList(body)
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error":     "payload does not match task signature",
			"signature": codec.Signature(),
		})
	}

	diffs, err := transfer.Compare(c.Request().Context(), s.db, tasks)
	if err != nil {
		return err
	}

	logger.Info("Handoff compared", logger.F("tasks", len(tasks)))
	return c.JSON(http.StatusOK, transfer.HandoffResponse{Tasks: diffs})
}

func (s *Server) loadTask(c echo.Context) (*model.Task, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}

	task, err := s.db.GetTask(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	return task, err
}

// timingError maps aggregation failures to HTTP errors
func timingError(err error) error {
	switch {
	case errors.Is(err, timing.ErrCycle), errors.Is(err, timing.ErrMultipleIncomplete):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return err
	}
}
