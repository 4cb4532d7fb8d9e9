// Package assets handles user uploads: bytes to object storage, metadata to
// the row store. Deleting an asset never touches node content; a node that
// still references a removed asset renders without media.
package assets

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"

	"giftflow-backend/internal/domain/flow"
	apperrors "giftflow-backend/internal/errors"
	"giftflow-backend/internal/repository"
)

// MaxUploadBytes caps a single upload at 10 MiB.
const MaxUploadBytes = 10 << 20

var allowedMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadInput describes one incoming file.
type UploadInput struct {
	ProjectID string
	FileName  string
	MimeType  string
	Size      int64
	Body      io.Reader
	AltText   string
}

// Service stores upload bytes in a storage bucket and their metadata in the
// asset repository.
type Service struct {
	storage *storage_go.Client
	bucket  string
	assets  repository.AssetRepository
	logger  *zap.Logger
}

// NewService wires the asset service against a storage bucket.
func NewService(storage *storage_go.Client, bucket string, assets repository.AssetRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage: storage,
		bucket:  bucket,
		assets:  assets,
		logger:  logger.Named("assets"),
	}
}

// Upload validates, stores, and records one file. The returned asset's
// StorageRef is the bucket-relative object path.
func (s *Service) Upload(ctx context.Context, ownerID string, input UploadInput) (*flow.Asset, string, error) {
	ext, ok := allowedMimeTypes[input.MimeType]
	if !ok {
		return nil, "", apperrors.NewInvalidInput(fmt.Sprintf("unsupported content type %q", input.MimeType))
	}
	if input.Size <= 0 || input.Size > MaxUploadBytes {
		return nil, "", apperrors.NewInvalidInput("file size must be between 1 byte and 10 MiB")
	}

	assetID := uuid.New().String()
	objectPath := path.Join(ownerID, assetID+ext)

	contentType := input.MimeType
	if _, err := s.storage.UploadFile(s.bucket, objectPath, io.LimitReader(input.Body, MaxUploadBytes), storage_go.FileOptions{
		ContentType: &contentType,
	}); err != nil {
		return nil, "", apperrors.NewStoreFailure("failed to upload file", err)
	}

	asset := &flow.Asset{
		ID:         assetID,
		OwnerID:    ownerID,
		ProjectID:  input.ProjectID,
		StorageRef: objectPath,
		FileName:   sanitizeFileName(input.FileName),
		FileSize:   input.Size,
		MimeType:   input.MimeType,
		AltText:    input.AltText,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		// Orphaned object cleanup is best effort; a leaked blob is
		// invisible to users and reclaimable offline.
		if _, rmErr := s.storage.RemoveFile(s.bucket, []string{objectPath}); rmErr != nil {
			s.logger.Warn("orphaned upload left in storage",
				zap.String("path", objectPath),
				zap.Error(rmErr),
			)
		}
		return nil, "", apperrors.NewStoreFailure("failed to record asset", err)
	}

	s.logger.Info("asset uploaded",
		zap.String("assetId", assetID),
		zap.String("mimeType", input.MimeType),
		zap.Int64("size", input.Size),
	)
	return asset, s.PublicURL(asset), nil
}

// Get returns one asset's metadata with its public URL.
func (s *Service) Get(ctx context.Context, ownerID, assetID string) (*flow.Asset, string, error) {
	asset, err := s.assets.FindByID(ctx, ownerID, assetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", apperrors.NewNotFound("asset not found")
		}
		return nil, "", apperrors.NewStoreFailure("failed to read asset", err)
	}
	return asset, s.PublicURL(asset), nil
}

// Delete removes the metadata row first, then the stored object. Node
// content referencing the asset is intentionally left untouched.
func (s *Service) Delete(ctx context.Context, ownerID, assetID string) error {
	asset, err := s.assets.FindByID(ctx, ownerID, assetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewNotFound("asset not found")
		}
		return apperrors.NewStoreFailure("failed to read asset", err)
	}

	if err := s.assets.Delete(ctx, ownerID, assetID); err != nil {
		return apperrors.NewStoreFailure("failed to delete asset", err)
	}
	if _, err := s.storage.RemoveFile(s.bucket, []string{asset.StorageRef}); err != nil {
		s.logger.Warn("stored object removal failed after metadata delete",
			zap.String("path", asset.StorageRef),
			zap.Error(err),
		)
	}
	return nil
}

// PublicURL resolves the browser-facing URL for an asset's stored object.
func (s *Service) PublicURL(asset *flow.Asset) string {
	return s.storage.GetPublicUrl(s.bucket, asset.StorageRef).SignedURL
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}
