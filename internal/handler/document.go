package handler

import (
	"fmt"
	"mime"
	"net/http"
	"path"

	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/service"
	"github.com/kryptonation/creamrun-sub000/internal/validation"
	"github.com/labstack/echo/v4"
)

type DocumentHandler struct {
	Handler
	documents *service.DocumentService
}

func NewDocumentHandler(s *server.Server, documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Handler: NewHandler(s), documents: documents}
}

// UploadDocumentRequest is the multipart form of an upload. The file itself
// travels in the "file" part.
type UploadDocumentRequest struct {
	ObjectType   string `form:"object_type" validate:"required,oneof=vehicle driver lease medallion expense case"`
	ObjectID     string `form:"object_id" validate:"required,uuid"`
	DocumentType string `form:"document_type" validate:"required,max=50"`
}

func (r *UploadDocumentRequest) Validate() error { return validation.Struct(r) }

func uploadContentType(filename, declared string) string {
	if declared != "" {
		return declared
	}
	if t := mime.TypeByExtension(path.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (h *DocumentHandler) Upload(c echo.Context, req *UploadDocumentRequest) (*model.Document, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		code := "FILE_REQUIRED"
		return nil, errs.NewBadRequestError("A file is required", true, &code,
			[]errs.FieldError{{Field: "file", Error: "is required"}}, nil)
	}

	limitMB := h.server.Config.Storage.MaxUploadMB
	if fh.Size > int64(limitMB)<<20 {
		return nil, &errs.HTTPError{
			Code:     "PAYLOAD_TOO_LARGE",
			Message:  fmt.Sprintf("Files may not exceed %d MB", limitMB),
			Status:   http.StatusRequestEntityTooLarge,
			Override: true,
		}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return h.documents.Upload(c.Request().Context(), service.UploadDocumentInput{
		ObjectType:   model.ObjectType(req.ObjectType),
		ObjectID:     *optionalUUID(req.ObjectID),
		DocumentType: req.DocumentType,
		Filename:     fh.Filename,
		ContentType:  uploadContentType(fh.Filename, fh.Header.Get(echo.HeaderContentType)),
		Size:         fh.Size,
		Body:         f,
		UploadedBy:   currentUser(c),
	})
}

type ListDocumentsRequest struct {
	ObjectType string `query:"object_type" validate:"required,oneof=vehicle driver lease medallion expense case"`
	ObjectID   string `query:"object_id" validate:"required,uuid"`
}

func (r *ListDocumentsRequest) Validate() error { return validation.Struct(r) }

func (h *DocumentHandler) List(c echo.Context, req *ListDocumentsRequest) ([]model.Document, error) {
	return h.documents.List(c.Request().Context(), model.ObjectType(req.ObjectType), *optionalUUID(req.ObjectID))
}

func (h *DocumentHandler) Get(c echo.Context, req *IDRequest) (*model.Document, error) {
	return h.documents.Get(c.Request().Context(), req.UUID())
}

func (h *DocumentHandler) Delete(c echo.Context, req *IDRequest) error {
	return h.documents.Delete(c.Request().Context(), req.UUID())
}
