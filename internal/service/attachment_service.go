package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
	"github.com/noah-isme/sma-roster-api/pkg/storage"
)

const sniffLength = 3072

type attachmentStorage interface {
	SaveStream(name string, r io.Reader, limit int64) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type downloadSigner interface {
	Generate(key, filename string) (string, time.Time, error)
	Parse(token string) (storage.DownloadGrant, error)
}

// AttachmentConfig limits what may be uploaded.
type AttachmentConfig struct {
	APIPrefix    string
	MaxFileSize  int64
	AllowedMIMEs []string
}

// Attachment describes a stored upload. Key is what a file field stores.
type Attachment struct {
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AttachmentService stores files for file-typed fields.
type AttachmentService struct {
	storage attachmentStorage
	signer  downloadSigner
	cfg     AttachmentConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewAttachmentService constructs the service.
func NewAttachmentService(store attachmentStorage, signer downloadSigner, cfg AttachmentConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{storage: store, signer: signer, cfg: cfg, logger: logger, now: time.Now}
}

// Upload sniffs, size-checks and stores r under a fresh key.
func (s *AttachmentService) Upload(ctx context.Context, filename string, r io.Reader) (*Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	head := make([]byte, sniffLength)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	head = head[:n]
	if n == 0 {
		return nil, appErrors.Validation("file is empty", map[string]string{"file": "empty upload"})
	}

	detected := mimetype.Detect(head)
	if !s.allowed(detected) {
		return nil, appErrors.Validation(fmt.Sprintf("file type %s is not allowed", detected.String()), map[string]string{"file": "unsupported type"})
	}

	name := sanitizeFilename(filename)
	key := path.Join(s.now().UTC().Format("2006/01"), uuid.NewString()+detected.Extension())
	size, err := s.storage.SaveStream(key, io.MultiReader(bytes.NewReader(head), r), s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Validation(fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize), map[string]string{"file": "too large"})
		}
		return nil, appErrors.Storage(err, "failed to store attachment")
	}

	attachment, err := s.describe(key, name)
	if err != nil {
		_ = s.storage.Delete(key)
		return nil, err
	}
	attachment.ContentType = detected.String()
	attachment.Size = size
	s.logger.Info("attachment stored", zap.String("key", key), zap.Int64("size", size), zap.String("content_type", attachment.ContentType))
	return attachment, nil
}

// Link issues a fresh download URL for a stored key.
func (s *AttachmentService) Link(key, filename string) (*Attachment, error) {
	if filename == "" {
		filename = path.Base(key)
	}
	return s.describe(key, sanitizeFilename(filename))
}

// Open resolves a download token to the stored file.
func (s *AttachmentService) Open(token string) (*os.File, storage.DownloadGrant, error) {
	grant, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, storage.DownloadGrant{}, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link expired")
		}
		return nil, storage.DownloadGrant{}, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download link")
	}
	file, err := s.storage.Open(grant.Key)
	if err != nil {
		return nil, storage.DownloadGrant{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "attachment not found")
	}
	return file, grant, nil
}

// Purge removes a stored file. Unknown keys are not an error.
func (s *AttachmentService) Purge(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.storage.Delete(key); err != nil {
		if errors.Is(err, storage.ErrOutsideBase) {
			s.logger.Warn("refusing to purge key outside storage", zap.String("key", key))
			return nil
		}
		return appErrors.Storage(err, "failed to purge attachment")
	}
	s.logger.Info("attachment purged", zap.String("key", key))
	return nil
}

func (s *AttachmentService) describe(key, filename string) (*Attachment, error) {
	token, expiresAt, err := s.signer.Generate(key, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &Attachment{
		Key:         key,
		Filename:    filename,
		DownloadURL: strings.TrimRight(s.cfg.APIPrefix, "/") + "/attachments/download?token=" + token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AttachmentService) allowed(detected *mimetype.MIME) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, m := range s.cfg.AllowedMIMEs {
		if detected.Is(m) {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		return "attachment"
	}
	return name
}
