package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"

	"github.com/localcomicreader/readerd/pkg/readererr"
)

var kindStatus = map[readererr.Kind]int{
	readererr.NotFound:         http.StatusNotFound,
	readererr.Unsupported:      http.StatusBadRequest,
	readererr.BadDimensions:    http.StatusBadRequest,
	readererr.EmptyImage:       http.StatusBadRequest,
	readererr.DecodeFailed:     http.StatusInternalServerError,
	readererr.SourceUnreadable: http.StatusInternalServerError,
	readererr.DiskError:        http.StatusInternalServerError,
	readererr.CacheAliasing:    http.StatusInternalServerError,
	readererr.StateInvariant:   http.StatusInternalServerError,
	readererr.ICCFailed:        http.StatusOK,
}

// errorHandler translates readererr.Kind and echo.HTTPError into a JSON
// payload, following the reference server's errcodes.Handler shape.
func errorHandler(err error, c echo.Context) {
	httpCode, payload := translate(err)

	if httpCode == http.StatusInternalServerError {
		logger.FromEchoContext(c).Err(err).Error("server error")
	}

	if jsonErr := c.JSON(httpCode, payload); jsonErr != nil {
		logger.FromEchoContext(c).Err(errors.WithStack(jsonErr)).Error("error handler json error")
	}
}

func translate(err error) (int, map[string]interface{}) {
	if kind, ok := readererr.KindOf(err); ok {
		code, ok := kindStatus[kind]
		if !ok {
			code = http.StatusInternalServerError
		}
		return code, map[string]interface{}{
			"error": map[string]interface{}{
				"code":        string(kind),
				"message":     err.Error(),
				"status_code": code,
			},
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, map[string]interface{}{
			"error": map[string]interface{}{
				"code":        "http_error",
				"message":     msg,
				"status_code": he.Code,
			},
		}
	}

	return http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"code":        "internal_server_error",
			"message":     "Internal Server Error",
			"status_code": http.StatusInternalServerError,
		},
	}
}
