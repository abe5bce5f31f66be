package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"meetspace_backend/internal/imageprocessor"
	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/internal/storage"
	"meetspace_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PurposeAvatar = "avatar"

	defaultMaxAvatarSize = 5 << 20
	sniffLen             = 512
)

var defaultAvatarTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

type UploadService interface {
	// UploadAvatar сохраняет изображение в хранилище и делает его аватаром клиента.
	// Предыдущий аватар удаляется после успешной замены.
	UploadAvatar(ctx context.Context, db *gorm.DB, customerID string, file *multipart.FileHeader) (*dto.UploadResponse, error)
}

type UploadConfig struct {
	MaxFileSize  int64
	AllowedTypes []string
	// Folder - префикс ключей в бакете (AWS_S3_FOLDER).
	Folder string
	// MaxSide - JPEG/PNG крупнее по любой стороне уменьшаются до него.
	MaxSide int
}

type uploadService struct {
	mediaRepo    repositories.MediaRepository
	customerRepo repositories.CustomerRepository
	storage      storage.Storage
	images       *imageprocessor.Processor
	config       UploadConfig
}

func NewUploadService(
	mediaRepo repositories.MediaRepository,
	customerRepo repositories.CustomerRepository,
	store storage.Storage,
	config UploadConfig,
) UploadService {
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = defaultMaxAvatarSize
	}
	if len(config.AllowedTypes) == 0 {
		config.AllowedTypes = defaultAvatarTypes
	}
	return &uploadService{
		mediaRepo:    mediaRepo,
		customerRepo: customerRepo,
		storage:      store,
		images:       imageprocessor.NewProcessor(imageprocessor.DefaultQuality, config.MaxSide),
		config:       config,
	}
}

func (s *uploadService) UploadAvatar(ctx context.Context, db *gorm.DB, customerID string, file *multipart.FileHeader) (*dto.UploadResponse, error) {
	if file == nil {
		return nil, apperrors.NewBadRequestError("File is required")
	}
	if file.Size > s.config.MaxFileSize {
		return nil, apperrors.ErrFileTooLarge.WithDetails(map[string]int64{
			"maxSize": s.config.MaxFileSize,
			"size":    file.Size,
		})
	}

	customer, err := s.customerRepo.FindByID(db, customerID)
	if err != nil {
		return nil, handleCustomerError(err)
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("open uploaded file: %w", err))
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.config.MaxFileSize+1))
	if err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("read uploaded file: %w", err))
	}
	if int64(len(data)) > s.config.MaxFileSize {
		return nil, apperrors.ErrFileTooLarge.WithDetails(map[string]int64{"maxSize": s.config.MaxFileSize})
	}

	mimeType, err := DetectImageType(file.Filename, data[:min(len(data), sniffLen)], s.config.AllowedTypes)
	if err != nil {
		return nil, err
	}

	img, err := s.images.Normalize(data)
	if err != nil {
		return nil, handleImageError(err)
	}
	if img.Resized {
		logger.CtxDebug(ctx, "avatar resized", "customer_id", customerID, "width", img.Width, "height", img.Height)
	}

	key := s.avatarKey(customerID, file.Filename, mimeType)
	size := int64(len(img.Data))
	if err := s.storage.Save(ctx, key, bytes.NewReader(img.Data), size, mimeType); err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("save avatar: %w", err))
	}

	media := &models.Media{
		CustomerID: &customerID,
		Key:        key,
		URL:        s.storage.URL(key),
		MimeType:   mimeType,
		Size:       size,
		Purpose:    PurposeAvatar,
	}
	if err := s.mediaRepo.Create(db, media); err != nil {
		s.dropObject(ctx, key)
		return nil, apperrors.InternalError(err)
	}

	err = s.customerRepo.UpdateFields(db, customerID, map[string]interface{}{
		"avatar_url":      media.URL,
		"avatar_media_id": media.ID,
	})
	if err != nil {
		s.dropObject(ctx, key)
		if delErr := s.mediaRepo.Delete(db, media.ID); delErr != nil {
			logger.CtxWithError(ctx, "failed to drop avatar media row", delErr, "media_id", media.ID)
		}
		return nil, handleCustomerError(err)
	}

	if customer.AvatarMediaID != nil && *customer.AvatarMediaID != media.ID {
		s.dropPrevious(ctx, db, *customer.AvatarMediaID)
	}

	return &dto.UploadResponse{
		ID:       media.ID,
		URL:      media.URL,
		Purpose:  media.Purpose,
		MimeType: media.MimeType,
		Size:     media.Size,
	}, nil
}

// avatarKey: <folder>/avatars/<customerId>/<uuid><ext>
func (s *uploadService) avatarKey(customerID, filename, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	name := uuid.NewString() + ext
	return path.Join(strings.Trim(s.config.Folder, "/"), "avatars", customerID, name)
}

func (s *uploadService) dropObject(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		logger.CtxWithError(ctx, "failed to delete stored object", err, "key", key)
	}
}

func (s *uploadService) dropPrevious(ctx context.Context, db *gorm.DB, mediaID string) {
	old, err := s.mediaRepo.FindByID(db, mediaID)
	if err != nil {
		if !errors.Is(err, repositories.ErrMediaNotFound) {
			logger.CtxWithError(ctx, "failed to load previous avatar", err, "media_id", mediaID)
		}
		return
	}
	s.dropObject(ctx, old.Key)
	if err := s.mediaRepo.Delete(db, old.ID); err != nil {
		logger.CtxWithError(ctx, "failed to delete previous avatar row", err, "media_id", old.ID)
	}
}

func handleImageError(err error) error {
	if errors.Is(err, imageprocessor.ErrTooManyPixels) {
		return apperrors.ErrFileTooLarge.WithDetails(map[string]string{"reason": err.Error()})
	}
	return apperrors.ErrInvalidFileType.WithDetails(map[string]string{"reason": err.Error()})
}

// DetectImageType определяет MIME по первым байтам файла и сверяет его со
// списком разрешенных типов. HTML и SVG отклоняются всегда.
func DetectImageType(filename string, head []byte, allowed []string) (string, error) {
	detected := http.DetectContentType(head)
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}

	if strings.HasPrefix(detected, "text/") || strings.Contains(detected, "xml") {
		return "", apperrors.ErrInvalidFileType.WithDetails(map[string]string{"detected": detected})
	}
	for _, t := range allowed {
		if t == detected {
			return detected, nil
		}
	}
	return "", apperrors.ErrInvalidFileType.WithDetails(map[string]interface{}{
		"detected": detected,
		"allowed":  allowed,
		"filename": filepath.Base(filename),
	})
}
