package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"meetspace_backend/internal/models"
	"meetspace_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = encodePNG(1, 1)

func encodePNG(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStorage) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryStorage) URL(key string) string {
	return "https://cdn.example.com/" + key
}

// multipartFile собирает *multipart.FileHeader так же, как его получает gin.
func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestDetectImageType(t *testing.T) {
	mime, err := DetectImageType("a.png", pngHeader, defaultAvatarTypes)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = DetectImageType("a.png", []byte("<html><script>alert(1)</script></html>"), defaultAvatarTypes)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)

	_, err = DetectImageType("a.pdf", []byte("%PDF-1.4"), defaultAvatarTypes)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)
}

func TestUploadAvatar_ReplacesPrevious(t *testing.T) {
	customers := newFakeCustomerRepo(&models.Customer{BaseModel: models.BaseModel{ID: "cust-1"}, Email: "a@example.com"})
	media := newFakeMediaRepo()
	store := &memoryStorage{objects: map[string][]byte{}}
	svc := NewUploadService(media, customers, store, UploadConfig{Folder: "meetspace"})

	first, err := svc.UploadAvatar(context.Background(), nil, "cust-1", multipartFile(t, "me.png", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.URL, "https://cdn.example.com/meetspace/avatars/cust-1/"))
	assert.True(t, strings.HasSuffix(first.URL, ".png"))
	assert.Equal(t, "image/png", first.MimeType)

	second, err := svc.UploadAvatar(context.Background(), nil, "cust-1", multipartFile(t, "me2.png", pngHeader))
	require.NoError(t, err)

	customer, _ := customers.FindByID(nil, "cust-1")
	assert.Equal(t, second.URL, customer.AvatarURL)
	require.NotNil(t, customer.AvatarMediaID)
	assert.Equal(t, second.ID, *customer.AvatarMediaID)

	assert.Len(t, store.objects, 1, "старый аватар удален из хранилища")
	assert.Len(t, media.media, 1)
}

func TestUploadAvatar_RejectsLargeAndInvalid(t *testing.T) {
	customers := newFakeCustomerRepo(&models.Customer{BaseModel: models.BaseModel{ID: "cust-1"}, Email: "a@example.com"})
	store := &memoryStorage{objects: map[string][]byte{}}
	svc := NewUploadService(newFakeMediaRepo(), customers, store, UploadConfig{MaxFileSize: 16})

	_, err := svc.UploadAvatar(context.Background(), nil, "cust-1", multipartFile(t, "big.png", pngHeader))
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)

	svc = NewUploadService(newFakeMediaRepo(), customers, store, UploadConfig{})
	_, err = svc.UploadAvatar(context.Background(), nil, "cust-1", multipartFile(t, "x.png", []byte("plain text")))
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)
	assert.Empty(t, store.objects)
}

func TestUploadAvatar_DownscalesLargeImage(t *testing.T) {
	customers := newFakeCustomerRepo(&models.Customer{BaseModel: models.BaseModel{ID: "cust-1"}, Email: "a@example.com"})
	store := &memoryStorage{objects: map[string][]byte{}}
	svc := NewUploadService(newFakeMediaRepo(), customers, store, UploadConfig{MaxSide: 64})

	resp, err := svc.UploadAvatar(context.Background(), nil, "cust-1", multipartFile(t, "wide.png", encodePNG(256, 128)))
	require.NoError(t, err)

	key := strings.TrimPrefix(resp.URL, "https://cdn.example.com/")
	stored, ok := store.objects[key]
	require.True(t, ok)
	cfg, err := png.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
	assert.Equal(t, int64(len(stored)), resp.Size, "размер берется после уменьшения")
}

func TestUploadAvatar_CorruptImage(t *testing.T) {
	customers := newFakeCustomerRepo(&models.Customer{BaseModel: models.BaseModel{ID: "cust-1"}, Email: "a@example.com"})
	store := &memoryStorage{objects: map[string][]byte{}}
	svc := NewUploadService(newFakeMediaRepo(), customers, store, UploadConfig{})

	broken := append([]byte("\x89PNG\r\n\x1a\n"), []byte("truncated")...)
	_, err := svc.UploadAvatar(context.Background(), nil, "cust-1", multipartFile(t, "broken.png", broken))
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)
	assert.Empty(t, store.objects)
}
