package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"YourWheels/apperr"
)

// ErrorHandler renders every error returned by a handler or middleware as
// {"success": false, "message": ...}. With Redirect set, server errors send
// the browser to FrontendURL/error instead.
type ErrorHandler struct {
	Log         *zap.Logger
	Redirect    bool
	FrontendURL string
}

func (h *ErrorHandler) status(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, msg
	}
	kind := apperr.KindOf(err)
	return kind.Status(), apperr.Message(err)
}

func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := h.status(err)

	log := h.Log
	if log == nil {
		log = zap.NewNop()
	}
	req := c.Request()
	if code >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", code),
			zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("uri", req.RequestURI), zap.Int("status", code), zap.String("message", msg))
	}

	if h.Redirect && code >= http.StatusInternalServerError && h.FrontendURL != "" {
		q := url.Values{}
		q.Set("code", strconv.Itoa(code))
		q.Set("message", msg)
		q.Set("stack", fmt.Sprintf("%+v", err))
		if rerr := c.Redirect(http.StatusFound, h.FrontendURL+"/error?"+q.Encode()); rerr != nil {
			log.Error("error redirect failed", zap.Error(rerr))
		}
		return
	}

	var writeErr error
	if req.Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, echo.Map{"success": false, "message": msg})
	}
	if writeErr != nil {
		log.Error("write error response", zap.Error(writeErr))
	}
}
