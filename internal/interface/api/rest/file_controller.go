package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"localdrop/internal/application/ports"
	"localdrop/internal/domain/media"
	dto "localdrop/internal/interface/api/rest/dto/media"
	"localdrop/internal/interface/api/rest/validator"
)

type FileController struct {
	registry ports.Registry
	opener   media.BlobOpener
	urls     ports.URLResolver
	logger   *zap.Logger
}

func NewFileController(
	r gin.IRouter,
	registry ports.Registry,
	opener media.BlobOpener,
	urls ports.URLResolver,
	logger *zap.Logger,
) *FileController {
	fc := &FileController{
		registry: registry,
		opener:   opener,
		urls:     urls,
		logger:   logger,
	}

	r.GET(RouteFiles, fc.GetFilesHandler)
	r.GET(RouteIP, fc.GetIPHandler)
	r.GET(RouteUploads, fc.ServeFileHandler)
	r.HEAD(RouteUploads, fc.ServeFileHandler)

	return fc
}

func (fc *FileController) GetFilesHandler(c *gin.Context) {
	snap, err := fc.registry.List(c.Request.Context())
	if err != nil {
		c.JSON(
			http.StatusServiceUnavailable,
			gin.H{"error": "failed to list files"},
		)
		fc.logger.Error("List() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, dto.ResponseData{
		Files: dto.ToResponseFiles(snap, fc.urls.FileURL),
	})
}

func (fc *FileController) GetIPHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.IPResponse{
		IP:        fc.urls.LocalIP(),
		UploadURL: fc.urls.UploadPageURL(),
	})
}

// ServeFileHandler streams stored bytes with range support. Content under
// an identifier never changes, so it is cached indefinitely.
func (fc *FileController) ServeFileHandler(c *gin.Context) {
	id := c.Param("identifier")
	if !validator.IsIdentifier(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	rc, rec, err := fc.opener.Open(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		fc.logger.Error("Open() error", zap.String("identifier", id), zap.Error(err))
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, rec.Identifier, rec.CreatedAt(), rc)
}
