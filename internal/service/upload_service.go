package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/rs/zerolog"

	"koomia/api/internal/apperr"
	"koomia/api/internal/ids"
	"koomia/api/internal/media/sniffer"
	"koomia/api/internal/models"
)

const MaxUploadBytes = 5 << 20

var (
	ErrNotAnImage   = apperr.New(apperr.BadRequest, "Only image files are allowed.")
	ErrFileTooLarge = apperr.New(apperr.BadRequest, "File is too large.")
	ErrEmptyFile    = apperr.New(apperr.BadRequest, "File is empty.")
	ErrTypeMismatch = apperr.New(apperr.BadRequest, "File content does not match its content type.")
)

type UploadInput struct {
	File         io.Reader
	DeclaredType string
}

// UploadService sniffs uploaded images and stores them in object storage.
type UploadService struct {
	store MediaStore
	log   zerolog.Logger
}

func NewUploadService(store MediaStore, log zerolog.Logger) *UploadService {
	return &UploadService{store: store, log: log}
}

// Store keeps the upload under prefix. The declared content type, when
// present, must agree with the sniffed one.
func (s *UploadService) Store(ctx context.Context, prefix string, input UploadInput) (models.Media, error) {
	if input.File == nil {
		return models.Media{}, ErrEmptyFile
	}

	data, err := io.ReadAll(io.LimitReader(input.File, MaxUploadBytes+1))
	if err != nil {
		return models.Media{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return models.Media{}, ErrEmptyFile
	}
	if len(data) > MaxUploadBytes {
		return models.Media{}, ErrFileTooLarge
	}

	result, data, err := sniffer.Sniff(data, input.DeclaredType)
	switch {
	case errors.Is(err, sniffer.ErrUnknownType):
		return models.Media{}, ErrNotAnImage
	case errors.Is(err, sniffer.ErrTypeMismatch):
		return models.Media{}, ErrTypeMismatch
	case err != nil:
		return models.Media{}, err
	}

	objectKey := path.Join(prefix, time.Now().UTC().Format("2006/01/02"), ids.New()+result.Ext())
	media, err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), result.MIME)
	if err != nil {
		return models.Media{}, fmt.Errorf("put object: %w", err)
	}
	return media, nil
}

// Discard removes a stored object; failures are only logged since the
// owning record has already moved on.
func (s *UploadService) Discard(ctx context.Context, media *models.Media) {
	if media == nil || media.ObjectKey == "" {
		return
	}
	if err := s.store.Remove(ctx, media.ObjectKey); err != nil {
		s.log.Warn().Err(err).Str("object_key", media.ObjectKey).Msg("remove object failed")
	}
}
