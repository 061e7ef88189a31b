package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"lumiere/internal/gateway"
	"lumiere/internal/model"
	"lumiere/internal/service"
	"lumiere/pkg/apierror"
)

type GalleryHandler struct {
	service       *service.GalleryService
	maxUploadSize int64
}

func NewGalleryHandler(service *service.GalleryService, maxUploadSize int64) *GalleryHandler {
	return &GalleryHandler{service: service, maxUploadSize: maxUploadSize}
}

// Mount registers the gallery routes. /mine must precede /{id}.
func (h *GalleryHandler) Mount(r *gateway.Router) {
	r.Get("/", h.List, false)
	r.Get("/mine", h.Mine, true)
	r.Get("/{id}", h.Get, false)
	r.Post("/", h.Create, true)
	r.Put("/{id}", h.Update, true)
	r.Delete("/{id}", h.Delete, true)
}

func (h *GalleryHandler) List(rc *gateway.RequestContext) (*gateway.Result, error) {
	list, err := h.service.List(rc.Context())
	if err != nil {
		return nil, err
	}
	return gateway.OK("", list), nil
}

func (h *GalleryHandler) Mine(rc *gateway.RequestContext) (*gateway.Result, error) {
	list, err := h.service.ListMine(rc.Context(), rc.UserID())
	if err != nil {
		return nil, err
	}
	return gateway.OK("", list), nil
}

func (h *GalleryHandler) Get(rc *gateway.RequestContext) (*gateway.Result, error) {
	item, err := h.service.Get(rc.Context(), rc.Param("id"))
	if err != nil {
		return nil, err
	}
	return gateway.OK("", item), nil
}

func (h *GalleryHandler) Create(rc *gateway.RequestContext) (*gateway.Result, error) {
	req := rc.Request
	req.Body = http.MaxBytesReader(nil, req.Body, h.maxUploadSize)

	if err := req.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apierror.New("PAYLOAD_TOO_LARGE", "File too large", http.StatusRequestEntityTooLarge)
		}
		return nil, apierror.BadRequest("Invalid multipart form")
	}
	defer func() {
		if req.MultipartForm != nil {
			_ = req.MultipartForm.RemoveAll()
		}
	}()

	title := strings.TrimSpace(req.FormValue("title"))
	category := strings.TrimSpace(req.FormValue("category"))

	fields := map[string]string{}
	if title == "" {
		fields["title"] = "Title is required"
	}
	if category == "" {
		fields["category"] = "Category is required"
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		fields["file"] = "File is required"
	}
	if len(fields) > 0 {
		if file != nil {
			_ = file.Close()
		}
		return nil, apierror.Validation(fields)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, apierror.BadRequest("Could not read uploaded file")
	}

	item, err := h.service.Create(rc.Context(), model.CreateGalleryInput{
		OwnerID:     rc.UserID(),
		Title:       title,
		Category:    category,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return nil, err
	}

	return gateway.Created("Gallery item created", item), nil
}

func (h *GalleryHandler) Update(rc *gateway.RequestContext) (*gateway.Result, error) {
	var payload model.UpdateGalleryRequest
	if err := rc.Decode(&payload); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if strings.TrimSpace(payload.Title) == "" {
		fields["title"] = "Title is required"
	}
	if strings.TrimSpace(payload.Category) == "" {
		fields["category"] = "Category is required"
	}
	if len(fields) > 0 {
		return nil, apierror.Validation(fields)
	}

	item, err := h.service.Update(rc.Context(), rc.UserID(), rc.Param("id"), payload)
	if err != nil {
		return nil, err
	}

	return gateway.OK("Gallery item updated", item), nil
}

func (h *GalleryHandler) Delete(rc *gateway.RequestContext) (*gateway.Result, error) {
	if err := h.service.Delete(rc.Context(), rc.UserID(), rc.Param("id")); err != nil {
		return nil, err
	}
	return gateway.OK("Gallery item deleted", nil), nil
}
