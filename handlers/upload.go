package handlers

import (
	"context"
	"fmt"
	"image"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/raceatlas/raceatlas-api/models"
)

// Image objects live behind a CDN, so they get a week of cache.
const imageCacheControl = "public, max-age=604800, stale-while-revalidate=43200"

var imageSizes = []struct {
	suffix string
	w, h   int
}{
	{"lg", 1280, 720},
	{"md", 560, 315},
}

// UploadEventImage resizes an uploaded image into the standard variants
// and stores them in the CDN bucket under the event slug.
func (h *Handler) UploadEventImage(c echo.Context) error {
	if h.storage == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "uploads not configured")
	}

	slug := c.Param("slug")
	ctx := c.Request().Context()

	exists, err := h.db.NewSelect().
		Model((*models.Event)(nil)).
		Where("slug = ?", slug).
		Exists(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "not a decodable image")
	}

	bucket := h.storage.Bucket(h.cfg.GCSBucket)
	for _, size := range imageSizes {
		name := fmt.Sprintf("events/%s-%s.jpg", slug, size.suffix)
		if err := writeImageObject(ctx, bucket, name, img, size.w, size.h); err != nil {
			zap.L().Error("image upload failed", zap.String("object", name), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "upload failed")
		}
	}

	zap.L().Info("uploaded event images", zap.String("slug", slug))
	return c.JSON(http.StatusOK, "done")
}

func writeImageObject(ctx context.Context, bucket *storage.BucketHandle, name string, img image.Image, w, h int) error {
	resized := imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)

	writer := bucket.Object(name).NewWriter(ctx)
	writer.ContentType = "image/jpeg"
	writer.CacheControl = imageCacheControl

	if err := imaging.Encode(writer, resized, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
