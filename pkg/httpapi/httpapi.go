// Package httpapi exposes reader.Core's operation set as JSON endpoints
// under /api, plus the img:// asset route, behind the ambient middleware
// stack (structured logging, panic recovery, permissive CORS).
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/protocol"
	"github.com/localcomicreader/readerd/pkg/readererr"
	"github.com/localcomicreader/readerd/pkg/reader"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

type handler struct {
	core *reader.Core
}

// New builds an *echo.Echo wired with core's operations plus the asset
// route, applying the same middleware stack the reference server uses.
func New(core *reader.Core) *echo.Echo {
	e := echo.New()

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	protocol.NewHandler(core.Cache()).Register(e)

	h := &handler{core: core}
	api := e.Group("/api")
	api.POST("/open-path", h.openPath)
	api.GET("/sources/:source/pages", h.listPages)
	api.GET("/pages/:source/:index/url", h.getPageURL)
	api.GET("/pages/:source/:index/thumb", h.getThumbURL)
	api.POST("/prefetch", h.prefetch)
	api.POST("/cancel", h.cancel)
	api.POST("/progress/:source", h.saveProgress)
	api.GET("/progress/:source", h.queryProgress)
	api.GET("/stats", h.stats)

	e.HTTPErrorHandler = errorHandler
	return e
}

type openPathRequest struct {
	Path string `json:"path"`
}

func (h *handler) openPath(c echo.Context) error {
	req := openPathRequest{}
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}
	id, err := h.core.OpenPath(req.Path)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"source": id.String()}))
}

func (h *handler) listPages(c echo.Context) error {
	source := coretypes.SourceId(c.Param("source"))
	pages, err := h.core.ListPages(source)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, pages))
}

func (h *handler) pageIdParam(c echo.Context) (coretypes.PageId, error) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 32)
	if err != nil {
		return coretypes.PageId{}, readererr.New(readererr.NotFound, "invalid page index %q", c.Param("index"))
	}
	return coretypes.PageId{SourceId: coretypes.SourceId(c.Param("source")), Index: uint32(index)}, nil
}

func (h *handler) getPageURL(c echo.Context) error {
	page, err := h.pageIdParam(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := coretypes.DefaultRenderParams()
	if err := queryDecoder.Decode(&params, c.QueryParams()); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid render params: "+err.Error())
	}

	url, err := h.core.GetPageURL(page, params)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"url": url}))
}

func (h *handler) getThumbURL(c echo.Context) error {
	page, err := h.pageIdParam(c)
	if err != nil {
		return errors.WithStack(err)
	}

	longest := uint64(256)
	if raw := c.QueryParam("longest"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return readererr.New(readererr.NotFound, "invalid longest %q", raw)
		}
		longest = parsed
	}

	url, err := h.core.GetThumbURL(page, uint32(longest))
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"url": url}))
}

type prefetchRequest struct {
	Source   string  `json:"source"`
	Index    uint32  `json:"index"`
	Ahead    uint32  `json:"ahead"`
	Behind   uint32  `json:"behind"`
	Velocity float32 `json:"velocity"`
}

func (h *handler) prefetch(c echo.Context) error {
	req := prefetchRequest{}
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	policy := coretypes.DefaultPrefetchPolicy()
	if req.Ahead > 0 || req.Behind > 0 {
		policy = coretypes.PrefetchPolicy{Ahead: req.Ahead, Behind: req.Behind}
	}

	center := coretypes.PageId{SourceId: coretypes.SourceId(req.Source), Index: req.Index}
	if err := h.core.Prefetch(center, policy, req.Velocity); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

type cancelRequest struct {
	Token uint64 `json:"token"`
}

func (h *handler) cancel(c echo.Context) error {
	req := cancelRequest{}
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := h.core.Cancel(coretypes.RequestToken(req.Token)); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

type progressRequest struct {
	Index uint32 `json:"index"`
}

func (h *handler) saveProgress(c echo.Context) error {
	source := coretypes.SourceId(c.Param("source"))
	req := progressRequest{}
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := h.core.SaveProgress(source, req.Index); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) queryProgress(c echo.Context) error {
	source := coretypes.SourceId(c.Param("source"))
	index, err := h.core.QueryProgress(source)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, map[string]uint32{"index": index}))
}

func (h *handler) stats(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, h.core.Stats()))
}
