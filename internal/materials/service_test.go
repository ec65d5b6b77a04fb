package materials

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"study-backend/internal/contents"
	"study-backend/internal/shared/storage/object/local"
	"study-backend/internal/shared/util"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, materialID, contentType, requestID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, materialID+":"+contentType+":"+requestID)
	return q.err
}

func newTestService(t *testing.T) (*Service, *contents.MemoryRepo, *recordingQueue) {
	t.Helper()
	contentRepo := contents.NewMemoryRepo()
	queue := &recordingQueue{}
	clock := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	svc := &Service{
		Repo:     NewMemoryRepo(),
		Contents: contentRepo,
		Store:    local.New(t.TempDir()),
		Queue:    queue,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
	return svc, contentRepo, queue
}

func TestUploadTextFileStoresContent(t *testing.T) {
	svc, _, queue := newTestService(t)

	m, err := svc.Upload(context.Background(), UploadInput{
		UserID:    "u1",
		FileName:  "notes.txt",
		RequestID: "req-1",
		Body:      strings.NewReader("  Mitochondria make ATP.  "),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if m.Text() != "Mitochondria make ATP." {
		t.Fatalf("unexpected content %q", m.Text())
	}
	if m.NeedsExtraction || m.Status != StatusUploaded || m.Title != "notes.txt" || m.FileType != "txt" {
		t.Fatalf("unexpected material %+v", m)
	}
	if !strings.HasSuffix(m.FileURL, "_notes.txt") {
		t.Fatalf("expected storage key, got %q", m.FileURL)
	}
	if len(queue.jobs) != 1 || queue.jobs[0] != m.ID+":summary:req-1" {
		t.Fatalf("expected summary job, got %v", queue.jobs)
	}
}

func TestUploadImageNeedsExtraction(t *testing.T) {
	svc, _, _ := newTestService(t)

	m, err := svc.Upload(context.Background(), UploadInput{
		UserID:   "u1",
		Title:    "Cell diagram",
		FileName: "cell.png",
		Body:     strings.NewReader("\x89PNG\r\n\x1a\nrest"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !m.NeedsExtraction || m.Content != nil {
		t.Fatalf("expected pending extraction, got %+v", m)
	}
	if m.Title != "Cell diagram" {
		t.Fatalf("expected explicit title, got %q", m.Title)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Upload(context.Background(), UploadInput{UserID: "u1", FileName: "a.txt", Body: strings.NewReader("")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEnqueueFailureDoesNotFailCreate(t *testing.T) {
	svc, _, queue := newTestService(t)
	queue.err = errors.New("queue down")

	if _, err := svc.CreateText(context.Background(), TextInput{UserID: "u1", Content: "Atoms"}); err != nil {
		t.Fatalf("CreateText: %v", err)
	}
}

func TestCreateTextValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	tests := []struct {
		name string
		in   TextInput
	}{
		{name: "missing user", in: TextInput{Content: "x"}},
		{name: "blank content", in: TextInput{UserID: "u1", Content: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateText(context.Background(), tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestGetHidesOtherUsersMaterials(t *testing.T) {
	svc, _, _ := newTestService(t)
	m, err := svc.CreateText(context.Background(), TextInput{UserID: "u1", Content: "Atoms"})
	if err != nil {
		t.Fatalf("CreateText: %v", err)
	}

	if _, err := svc.Get(context.Background(), "u2", m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := svc.Get(context.Background(), "u1", m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Untitled notes" {
		t.Fatalf("unexpected title %q", got.Title)
	}
}

func TestListDefaultsToFive(t *testing.T) {
	svc, _, _ := newTestService(t)
	for i := 0; i < 7; i++ {
		if _, err := svc.CreateText(context.Background(), TextInput{UserID: "u1", Content: "text"}); err != nil {
			t.Fatalf("CreateText: %v", err)
		}
	}

	items, err := svc.List(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].CreatedAt.After(items[i-1].CreatedAt) {
			t.Fatalf("expected newest first")
		}
	}
}

func TestClearRemovesMaterialsAndContent(t *testing.T) {
	svc, contentRepo, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.CreateText(ctx, TextInput{UserID: "u1", Content: "Atoms"})
	if err != nil {
		t.Fatalf("CreateText: %v", err)
	}
	other, err := svc.CreateText(ctx, TextInput{UserID: "u2", Content: "Stars"})
	if err != nil {
		t.Fatalf("CreateText: %v", err)
	}
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	record, err := contents.New(m.ID, "Smart Summary", contents.SummaryPayload{Summary: "s", GeneratedAt: now}, now)
	if err != nil {
		t.Fatalf("contents.New: %v", err)
	}
	if err := contentRepo.Insert(ctx, record); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	deleted, err := svc.Clear(ctx, "u1")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	left, _ := contentRepo.ListByMaterial(ctx, m.ID, 0)
	if len(left) != 0 {
		t.Fatalf("expected content removed, got %d", len(left))
	}
	if _, err := svc.Get(ctx, "u2", other.ID); err != nil {
		t.Fatalf("other user's material should survive: %v", err)
	}
}

func TestRegisterUpload(t *testing.T) {
	svc, _, queue := newTestService(t)
	key := util.HashUserKey("u1") + "/abc_chapter 2.pdf"

	m, err := svc.RegisterUpload(context.Background(), RegisterInput{UserID: "u1", FileURL: key, RequestID: "req-9"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !m.NeedsExtraction || m.FileType != "pdf" || m.FileURL != key {
		t.Fatalf("unexpected material %+v", m)
	}
	if m.Title != "chapter 2.pdf" {
		t.Fatalf("expected title from file name, got %q", m.Title)
	}
	if m.Content != nil {
		t.Fatalf("expected no content before extraction")
	}
	if len(queue.jobs) != 1 || queue.jobs[0] != m.ID+":summary:req-9" {
		t.Fatalf("expected summary job, got %v", queue.jobs)
	}
}

func TestRegisterUploadValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	own := util.HashUserKey("u1")
	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "other user", key: util.HashUserKey("u2") + "/a_x.pdf"},
		{name: "traversal", key: own + "/../x.pdf"},
		{name: "docx", key: own + "/a_notes.docx"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterUpload(context.Background(), RegisterInput{UserID: "u1", FileURL: tc.key})
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
