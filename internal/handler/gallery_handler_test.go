package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lumiere/internal/model"
)

func multipartUpload(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, http.Header) {
	t.Helper()
	return multipartUploadNamed(t, fields, "photo.png", file)
}

func multipartUploadNamed(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, http.Header) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, http.Header{"Content-Type": {w.FormDataContentType()}}
}

func pngFile(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))))
	return buf.Bytes()
}

func withAuth(header http.Header, token string) http.Header {
	header.Set("Authorization", "Bearer "+token)
	return header
}

func TestGalleryListIsPublic(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	require.NoError(t, h.store.Create(context.Background(), model.Gallery{
		ID: uuid.NewString(), UserID: owner.UserID, ObjectKey: "galleries/k.png", Title: "T", Category: "C", CreatedAt: time.Now(),
	}))
	h.objects.On("PresignedGet", mock.Anything, "galleries/k.png", time.Hour).Return("https://s3/k.png", nil)

	rec, env := do(t, h.galleries, http.MethodGet, "/galleries", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Galleries []map[string]any `json:"galleries"`
		Count     int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Count)
	require.Equal(t, "owner@example.com", list.Galleries[0]["email"])
	require.Equal(t, "galleries/k.png", list.Galleries[0]["s3_key"])
	require.Equal(t, "https://s3/k.png", list.Galleries[0]["presigned_url"])
}

func TestGalleryCreateAndManage(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	other := h.register(t, "other@example.com")

	h.objects.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "galleries/"+owner.UserID+"/") && strings.HasSuffix(key, ".png")
	}), mock.Anything, "image/png").Return(nil)
	h.objects.On("PresignedGet", mock.Anything, mock.Anything, time.Hour).Return("https://s3/signed", nil)
	h.objects.On("Delete", mock.Anything, mock.Anything).Return(nil)

	body, header := multipartUpload(t, map[string]string{"title": "Sunset", "category": "nature"}, pngFile(t))
	rec, env := do(t, h.galleries, http.MethodPost, "/galleries", body, withAuth(header, owner.Token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.GalleryItem
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "Sunset", created.Title)
	require.Equal(t, owner.UserID, created.UserID)

	rec, env = do(t, h.galleries, http.MethodGet, "/galleries/mine", nil, bearer(owner.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), created.ID)

	rec, _ = do(t, h.galleries, http.MethodGet, "/galleries/mine", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h.galleries, http.MethodGet, "/galleries/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	update := `{"title":"Dawn","category":"sky"}`
	rec, env = do(t, h.galleries, http.MethodPut, "/galleries/"+created.ID, strings.NewReader(update), bearer(other.Token))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Gallery item not found", env.Message)

	rec, env = do(t, h.galleries, http.MethodPut, "/galleries/"+created.ID, strings.NewReader(update), bearer(owner.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"Dawn"`)

	rec, _ = do(t, h.galleries, http.MethodDelete, "/galleries/"+created.ID, nil, bearer(other.Token))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h.galleries, http.MethodDelete, "/galleries/"+created.ID, nil, bearer(owner.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, h.store.Len())

	rec, _ = do(t, h.galleries, http.MethodGet, "/galleries/"+created.ID, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGalleryCreateValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.register(t, "owner@example.com")

	body, header := multipartUpload(t, map[string]string{"title": "only title"}, nil)
	rec, env := do(t, h.galleries, http.MethodPost, "/galleries", body, withAuth(header, owner.Token))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, map[string]string{"category": "Category is required", "file": "File is required"}, env.Errors)

	body, header = multipartUpload(t, map[string]string{"title": "t", "category": "c"}, []byte("definitely not an image"))
	rec, env = do(t, h.galleries, http.MethodPost, "/galleries", body, withAuth(header, owner.Token))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, env.Errors, "file")

	body, header = multipartUploadNamed(t, map[string]string{"title": "t", "category": "c"}, "report.pdf", pngFile(t))
	rec, env = do(t, h.galleries, http.MethodPost, "/galleries", body, withAuth(header, owner.Token))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "File must be a valid image", env.Errors["file"])

	rec, _ = do(t, h.galleries, http.MethodPost, "/galleries", strings.NewReader(`{}`), bearer(owner.Token))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	h.objects.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGalleryCreateRejectsOversizedUpload(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.register(t, "owner@example.com")

	oversized := bytes.Repeat([]byte{0x89}, 2<<20)
	body, header := multipartUpload(t, map[string]string{"title": "t", "category": "c"}, oversized)
	rec, env := do(t, h.galleries, http.MethodPost, "/galleries", body, withAuth(header, owner.Token))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.False(t, env.Success)
	require.Equal(t, "File too large", env.Message)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Zero(t, h.store.Len())
	h.objects.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
