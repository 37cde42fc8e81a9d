// Package protocol decodes the asset:// image URL scheme down to a bare
// cache key, and serves it as a plain HTTP route.
package protocol

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/localcomicreader/readerd/pkg/cachefacade"
)

var stripPrefixes = []string{
	"asset://",
	"//",
	"asset.localhost/",
	"localhost/",
}

// KeyFromPath percent-decodes raw and strips the asset/localhost prefixes
// (repeatedly, in order), then requires a remaining "img/" prefix. Returns
// the bare cache key and true, or false if raw does not name an image
// asset at all.
func KeyFromPath(raw string) (string, bool) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}

	for {
		stripped := false
		for _, prefix := range stripPrefixes {
			if strings.HasPrefix(decoded, prefix) {
				decoded = strings.TrimPrefix(decoded, prefix)
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}

	decoded = strings.TrimPrefix(decoded, "/")
	if !strings.HasPrefix(decoded, "img/") {
		return "", false
	}
	return strings.TrimPrefix(decoded, "img/"), true
}

// Handler serves GET /img/:key (and the legacy asset:// forms once a
// client has percent-decoded and forwarded them to this path) by looking
// the key up in the cache façade directly, without any page-ownership
// check: the URL alone carries no PageId.
type Handler struct {
	Cache *cachefacade.Cache
}

// NewHandler constructs a Handler over cache.
func NewHandler(cache *cachefacade.Cache) *Handler {
	return &Handler{Cache: cache}
}

// Register mounts the handler at GET /img/*.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/img/*", h.serve)
}

func (h *Handler) serve(c echo.Context) error {
	c.Response().Header().Set("Access-Control-Allow-Origin", "*")

	key, ok := KeyFromPath(c.Request().URL.Path)
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}

	img, ok, err := h.Cache.FetchRaw(key)
	if err != nil {
		return err
	}
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}

	return c.Blob(http.StatusOK, img.Mime, img.Bytes)
}
