package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"localdrop/internal/application/ports"
	"localdrop/internal/domain/media"
	dto "localdrop/internal/interface/api/rest/dto/media"
	"localdrop/internal/interface/api/rest/validator"
)

// multipart framing allowance on top of the file itself
const multipartOverhead = int64(1 << 20)

type UploadController struct {
	ingestService ports.IngestService
	urls          ports.URLResolver
	logger        *zap.Logger
	maxBytes      int64
}

func NewUploadController(
	r gin.IRouter,
	ingestService ports.IngestService,
	urls ports.URLResolver,
	logger *zap.Logger,
	maxBytes int64,
	mw ...gin.HandlerFunc,
) *UploadController {
	uc := &UploadController{
		ingestService: ingestService,
		urls:          urls,
		logger:        logger,
		maxBytes:      maxBytes,
	}

	r.POST(RouteUpload, append(mw, uc.UploadHandler)...)

	return uc
}

func (uc *UploadController) UploadHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uc.maxBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": validator.ErrFileTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.ErrFileRequired.Error()})
		return
	}
	if err = validator.ValidateUploadHeader(fh, uc.maxBytes); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, validator.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		uc.logger.Error("FileHeader.Open() error", zap.Error(err))
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, uc.maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		uc.logger.Error("read upload error", zap.Error(err))
		return
	}

	rec, err := uc.ingestService.Ingest(c.Request.Context(), media.Upload{
		RawName:  fh.Filename,
		MimeHint: fh.Header.Get("Content-Type"),
		Content:  content,
	})
	if err != nil {
		var vErr *media.ValidationError
		switch {
		case errors.Is(err, media.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
			uc.logger.Error("Ingest() error", zap.Error(err))
		}
		return
	}

	file := dto.ToResponseFile(*rec, uc.urls.FileURL)
	c.JSON(http.StatusCreated, dto.UploadResponse{
		Success: true,
		URL:     file.URL,
		File:    file,
	})
}
