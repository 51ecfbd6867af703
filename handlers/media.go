package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"YourWheels/apperr"
	"YourWheels/media"
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type MediaController struct {
	store   media.Store
	baseURL string
	log     *zap.Logger
}

func NewMediaController(store media.Store, baseURL string, log *zap.Logger) *MediaController {
	return &MediaController{store: store, baseURL: strings.TrimRight(baseURL, "/"), log: log.Named("media")}
}

func (mc *MediaController) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperr.E(apperr.Validation, "file is required", err)
	}
	if fileHeader.Size > media.MaxUploadSize {
		return apperr.E(apperr.Validation, "file is too large", nil)
	}
	contentType := fileHeader.Header.Get(echo.HeaderContentType)
	if !imageTypes[contentType] {
		return apperr.E(apperr.Validation, "only jpeg, png, webp and gif images are accepted", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperr.E(apperr.Validation, "cannot open file", err)
	}
	defer file.Close()

	id, err := mc.store.Upload(c.Request().Context(), filepath.Base(fileHeader.Filename), contentType, file)
	if err != nil {
		return apperr.E(apperr.Upstream, "upload failed", err)
	}
	mc.log.Info("image uploaded", zap.String("id", id), zap.Int64("size", fileHeader.Size))
	return ok(c, http.StatusCreated, echo.Map{"id": id, "url": mc.baseURL + "/media/" + id})
}

func (mc *MediaController) Download(c echo.Context) error {
	f, err := mc.store.Open(c.Request().Context(), c.Param("id"))
	if errors.Is(err, media.ErrNotFound) {
		return apperr.E(apperr.NotFound, "Image not found", err)
	}
	if err != nil {
		return apperr.E(apperr.Upstream, "download failed", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "inline; filename="+f.Name)
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return c.Blob(http.StatusOK, f.ContentType, f.Data)
}
