package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultMediaPageSize = 20
	uploadsURLPrefix     = "/uploads/"
)

// Upload is one file received from the admin media library.
type Upload struct {
	OriginalName string
	MimeType     string
	Body         io.Reader
}

// MediaService stores uploads on local disk under dir and serves them from
// /uploads/<filename>.
type MediaService struct {
	repo MediaStore
	dir  string
	log  *slog.Logger
}

func NewMediaService(repo MediaStore, dir string, log *slog.Logger) *MediaService {
	return &MediaService{repo: repo, dir: dir, log: log}
}

func (s *MediaService) Dir() string {
	return s.dir
}

func (s *MediaService) List(ctx context.Context, session *access.Session, page domain.PageRequest) (domain.Page[domain.Media], error) {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return domain.Page[domain.Media]{}, err
	}
	page = page.Normalize(defaultMediaPageSize)
	media, total, err := s.repo.ListMedia(ctx, page)
	if err != nil {
		return domain.Page[domain.Media]{}, err
	}
	return domain.NewPage(media, total, page.Page, page.Limit), nil
}

// Upload writes the file under a generated name that keeps the original
// extension, then records it.
func (s *MediaService) Upload(ctx context.Context, session *access.Session, up Upload) (*domain.Media, error) {
	if err := access.RequirePermission(session, access.PermCreate); err != nil {
		return nil, err
	}
	if up.Body == nil || strings.TrimSpace(up.OriginalName) == "" {
		return nil, domain.Invalid("file", "no file provided")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(up.OriginalName)))
	filename := uuid.NewString() + ext
	path := filepath.Join(s.dir, filename)

	size, err := writeFile(path, up.Body)
	if err != nil {
		return nil, err
	}

	m := &domain.Media{
		Filename:     filename,
		OriginalName: filepath.Base(up.OriginalName),
		MimeType:     up.MimeType,
		Size:         size,
		URL:          uploadsURLPrefix + filename,
	}
	if err := s.repo.CreateMedia(ctx, m); err != nil {
		s.removeFile(filename)
		return nil, err
	}
	s.log.Info("media uploaded", "media_id", m.ID, "file", filename, "size", size, "by", session.UserID)
	return m, nil
}

func (s *MediaService) UpdateAlt(ctx context.Context, session *access.Session, id uuid.UUID, alt *string) (*domain.Media, error) {
	if err := access.RequirePermission(session, access.PermUpdate); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMediaAlt(ctx, id, alt); err != nil {
		return nil, err
	}
	return s.repo.GetMedia(ctx, id)
}

// Delete removes the row and the file behind it. A file that is already
// gone does not fail the delete.
func (s *MediaService) Delete(ctx context.Context, session *access.Session, id uuid.UUID) error {
	if err := access.RequirePermission(session, access.PermDelete); err != nil {
		return err
	}
	m, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMedia(ctx, id); err != nil {
		return err
	}
	s.removeFile(m.Filename)
	return nil
}

func (s *MediaService) removeFile(filename string) {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("failed to remove upload", "file", filename, "error", err)
	}
}

func writeFile(path string, body io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload: %w", err)
	}
	size, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("failed to write upload: %w", err)
	}
	return size, nil
}
