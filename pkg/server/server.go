// Package server serves a project base directory to the browser viewer
// along with a small JSON API describing its contents.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/project"
)

// shutdownTimeout bounds graceful shutdown after the context is done.
const shutdownTimeout = 5 * time.Second

// Output describes one assembled document.
type Output struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type handler struct {
	settings config.Settings
}

// New returns an echo app serving the base directory statically,
// GET /api/projects and GET /api/assembled.
func New(s config.Settings, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handler{settings: s}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
				return nil
			}
			logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	api := e.Group("/api")
	api.GET("/projects", h.projects)
	api.GET("/assembled", h.assembled)
	e.Static("/", s.BaseDir)
	return e
}

func (h *handler) projects(c echo.Context) error {
	ps, err := project.List(h.settings.BaseDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if ps == nil {
		ps = []project.Project{}
	}
	return c.JSON(http.StatusOK, ps)
}

func (h *handler) assembled(c echo.Context) error {
	dir := h.settings.OutputPath()
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	prefix := "/"
	if rel, err := filepath.Rel(h.settings.BaseDir, dir); err == nil && !strings.HasPrefix(rel, "..") {
		prefix += filepath.ToSlash(rel) + "/"
	}

	out := []Output{}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || (ext != ".glb" && ext != ".gltf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Output{
			Name: e.Name(),
			Size: info.Size(),
			URL:  path.Clean(prefix + e.Name()),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Run serves e on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	errc := make(chan error, 1)
	go func() {
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}
