package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	filesapp "github.com/procura/backend/internal/application/files"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// FileHandler handles document upload and download endpoints
type FileHandler struct {
	BaseHandler
	fileService *filesapp.FileService
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(fileService *filesapp.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// RegisterRoutes registers file routes on the given router group
func (h *FileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	files := rg.Group("/files")
	{
		files.POST("", h.Upload)
		files.GET("/download-url", h.DownloadURL)
	}
}

// Upload godoc
// @ID           uploadFile
// @Summary      Upload a document
// @Description  Stores an invoice scan, contract or other supporting document
// @Description  under the tenant's object storage prefix and returns its key
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Document to upload"
// @Success      201 {object} APIResponse[filesapp.UploadResponse]
// @Failure      413 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A file form field is required")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}

	resp, err := h.fileService.Upload(c.Request.Context(), tenantID, fileHeader.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// DownloadURLQuery identifies the stored object to sign
type DownloadURLQuery struct {
	Key string `form:"key" binding:"required"`
}

// DownloadURL godoc
// @ID           getFileDownloadUrl
// @Summary      Get a signed download URL
// @Description  Returns a time-limited URL for a stored document. Keys outside
// @Description  the caller's tenant prefix are rejected as not found
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        key query string true "Object key"
// @Success      200 {object} APIResponse[filesapp.DownloadURLResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /files/download-url [get]
func (h *FileHandler) DownloadURL(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query DownloadURLQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.fileService.DownloadURL(c.Request.Context(), tenantID, query.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
