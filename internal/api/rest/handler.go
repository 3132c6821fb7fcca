package rest

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	app "oral-scan/internal/application"
	apperrors "oral-scan/internal/platform/errors"
)

// Handler HTTP-обработчики сервиса.
type Handler struct {
	detections     *app.DetectionService
	history        *app.HistoryService
	environment    string
	storageDriver  string
	storagePath    string
	maxUploadBytes int64
}

// Register регистрирует маршруты
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.health)
	r.POST("/detect", h.detect)
	r.POST("/detect/batch", h.detectBatch)
	r.GET("/history/:user_id", h.listHistory)
	r.DELETE("/detection/:user_id/:index", h.deleteDetection)
}

type healthResponse struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	Model         string `json:"model"`
	Environment   string `json:"environment"`
	StorageDriver string `json:"storage_driver"`
	StoragePath   string `json:"storage_path"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:        "healthy",
		ModelLoaded:   h.detections.ModelReady(),
		Model:         h.detections.ModelName(),
		Environment:   h.environment,
		StorageDriver: h.storageDriver,
		StoragePath:   h.storagePath,
	})
}

func (h *Handler) detect(c *gin.Context) {
	h.limitBody(c)

	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		header, err = c.FormFile("image")
	}
	if tooLarge(c, err) {
		return
	}
	if err != nil {
		badRequest(c, "No image provided")
		return
	}

	upload, err := h.readUpload(c, header)
	if err != nil {
		badRequest(c, "Failed to read uploaded file")
		return
	}

	result, err := h.detections.Analyze(c.Request.Context(), upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) detectBatch(c *gin.Context) {
	h.limitBody(c)

	form, err := c.MultipartForm()
	if tooLarge(c, err) {
		return
	}
	if err != nil {
		badRequest(c, "No images provided")
		return
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var uploads []app.Upload
	for _, field := range fields {
		for _, header := range form.File[field] {
			upload, err := h.readUpload(c, header)
			if err != nil {
				badRequest(c, "Failed to read uploaded file")
				return
			}
			uploads = append(uploads, upload)
		}
	}
	if len(uploads) == 0 {
		badRequest(c, "No images provided")
		return
	}

	result, err := h.detections.AnalyzeBatch(c.Request.Context(), uploads)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listHistory(c *gin.Context) {
	limit := h.history.DefaultLimit()
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	page, err := h.history.List(c.Request.Context(), c.Param("user_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) deleteDetection(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "index must be an integer")
		return
	}

	if err := h.history.Delete(c.Request.Context(), c.Param("user_id"), index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Detection deleted successfully"})
}

// limitBody ограничивает тело запроса; запас покрывает служебные части multipart.
func (h *Handler) limitBody(c *gin.Context) {
	if h.maxUploadBytes <= 0 {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes*8+1<<20)
}

// tooLarge отвечает 413, если тело превысило лимит limitBody.
func tooLarge(c *gin.Context, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}
	respondError(c, apperrors.Wrap(apperrors.KindTooLarge, "http.upload", msgTooLarge, err))
	return true
}

func (h *Handler) readUpload(c *gin.Context, header *multipart.FileHeader) (app.Upload, error) {
	f, err := header.Open()
	if err != nil {
		return app.Upload{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxUploadBytes > 0 {
		// +1 байт: слишком большой файл отклонит препроцессор.
		r = io.LimitReader(f, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return app.Upload{}, err
	}

	userID := c.PostForm("user_id")
	if userID == "" {
		userID = c.Query("user_id")
	}
	includeImage, _ := strconv.ParseBool(c.DefaultPostForm("include_image", c.Query("include_image")))

	return app.Upload{
		Data:         data,
		Filename:     header.Filename,
		UserID:       userID,
		IncludeImage: includeImage,
	}, nil
}
