package materials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"study-backend/internal/contents"
	"study-backend/internal/extract"
	"study-backend/internal/shared/storage/object"
	"study-backend/internal/shared/telemetry"
	"study-backend/internal/shared/util"
)

const (
	defaultPageSize = 5
	maxTitleRunes   = 200
)

// JobQueue schedules background generation for a material.
type JobQueue interface {
	Enqueue(ctx context.Context, materialID, contentType, requestID string) error
}

type contentCascader interface {
	DeleteByMaterial(ctx context.Context, materialIDs ...string) error
}

// Service contains business logic for study materials.
type Service struct {
	Repo     Repo
	Contents contents.Repo
	Store    object.ObjectStore
	Queue    JobQueue
	Now      func() time.Time
}

// UploadInput describes a file upload.
type UploadInput struct {
	UserID    string
	Title     string
	FileName  string
	RequestID string
	Body      io.Reader
}

// TextInput describes a material created from pasted text.
type TextInput struct {
	UserID    string
	Title     string
	Content   string
	RequestID string
}

// Upload saves the file to object storage and records the material. Text that can be read
// locally becomes the material content; anything else is flagged for extraction.
func (s *Service) Upload(ctx context.Context, in UploadInput) (StudyMaterial, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return StudyMaterial{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" || in.Body == nil {
		return StudyMaterial{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if s.Store == nil {
		return StudyMaterial{}, fmt.Errorf("object store not configured")
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return StudyMaterial{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return StudyMaterial{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	key, _, _, err := s.Store.Save(ctx, in.UserID, fileName, bytes.NewReader(data))
	if err != nil {
		return StudyMaterial{}, fmt.Errorf("store upload: %w", err)
	}

	now := s.now()
	m := StudyMaterial{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Title:     titleOr(in.Title, fileName),
		FileType:  extract.Extension(fileName),
		FileURL:   key,
		Status:    StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}

	text, err := extract.LocalText(data, fileName)
	if err == nil && text != "" {
		m.Content = &text
	} else {
		if err != nil && !errors.Is(err, extract.ErrNoTextLayer) {
			telemetry.Warn("materials.local_text", map[string]any{
				"request_id": in.RequestID,
				"file_type":  m.FileType,
				"err":        err,
			})
		}
		m.NeedsExtraction = true
	}

	if err := s.Repo.Create(ctx, m); err != nil {
		return StudyMaterial{}, err
	}
	s.scheduleSummary(ctx, m, in.RequestID)
	return m, nil
}

// CreateText records a material from pasted text.
func (s *Service) CreateText(ctx context.Context, in TextInput) (StudyMaterial, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return StudyMaterial{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return StudyMaterial{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	now := s.now()
	m := StudyMaterial{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Title:     titleOr(in.Title, "Untitled notes"),
		Content:   &content,
		FileType:  "text",
		Status:    StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		return StudyMaterial{}, err
	}
	s.scheduleSummary(ctx, m, in.RequestID)
	return m, nil
}

// RegisterInput records a file the client already uploaded through a presigned URL.
type RegisterInput struct {
	UserID    string
	Title     string
	FileURL   string
	RequestID string
}

// RegisterUpload records a material for a stored file that only the provider can read. The
// key must sit under the caller's storage namespace.
func (s *Service) RegisterUpload(ctx context.Context, in RegisterInput) (StudyMaterial, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return StudyMaterial{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	key := strings.TrimLeft(strings.TrimSpace(in.FileURL), "/")
	if key == "" || strings.Contains(key, "..") {
		return StudyMaterial{}, fmt.Errorf("%w: fileUrl is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(key, util.HashUserKey(in.UserID)+"/") {
		return StudyMaterial{}, fmt.Errorf("%w: fileUrl does not belong to user", ErrInvalidInput)
	}
	ext := extract.Extension(key)
	if !extract.ProviderReadable(ext) {
		return StudyMaterial{}, fmt.Errorf("%w: unsupported file type %q", ErrInvalidInput, ext)
	}

	name := path.Base(key)
	if i := strings.Index(name, "_"); i >= 0 {
		name = name[i+1:]
	}
	now := s.now()
	m := StudyMaterial{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Title:           titleOr(in.Title, name),
		FileType:        ext,
		FileURL:         key,
		NeedsExtraction: true,
		Status:          StatusUploaded,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		return StudyMaterial{}, err
	}
	s.scheduleSummary(ctx, m, in.RequestID)
	return m, nil
}

// Get returns a material owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (StudyMaterial, error) {
	if strings.TrimSpace(id) == "" {
		return StudyMaterial{}, fmt.Errorf("%w: material id required", ErrInvalidInput)
	}
	m, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return StudyMaterial{}, err
	}
	if m.UserID != userID {
		return StudyMaterial{}, ErrNotFound
	}
	return m, nil
}

// List returns the user's materials, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]StudyMaterial, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// GeneratedFor lists the content generated for a material the user owns.
func (s *Service) GeneratedFor(ctx context.Context, userID, id string, limit int) ([]contents.GeneratedContent, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if s.Contents == nil {
		return []contents.GeneratedContent{}, nil
	}
	return s.Contents.ListByMaterial(ctx, id, limit)
}

// Clear deletes every material the user owns and returns how many were removed.
func (s *Service) Clear(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	ids, err := s.Repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if cascader, ok := s.Contents.(contentCascader); ok && len(ids) > 0 {
		if err := cascader.DeleteByMaterial(ctx, ids...); err != nil {
			return len(ids), err
		}
	}
	return len(ids), nil
}

func (s *Service) scheduleSummary(ctx context.Context, m StudyMaterial, requestID string) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.Enqueue(ctx, m.ID, string(contents.KindSummary), requestID); err != nil {
		telemetry.Warn("materials.enqueue_failed", map[string]any{
			"request_id":  requestID,
			"material_id": m.ID,
			"err":         err,
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func titleOr(title, fallback string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = fallback
	}
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	return title
}
