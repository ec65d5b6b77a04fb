package materials

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var materialColumns = []string{"id", "user_id", "title", "content", "file_type", "file_url", "needs_extraction", "status", "created_at", "updated_at"}

func newMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO study_materials").
		WithArgs("m1", "u1", "scan.png", nil, "png", "abc/scan.png", true, "uploaded", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), StudyMaterial{
		ID:              "m1",
		UserID:          "u1",
		Title:           "scan.png",
		FileType:        "png",
		FileURL:         "abc/scan.png",
		NeedsExtraction: true,
		Status:          StatusUploaded,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM study_materials WHERE id = \\$1").
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(materialColumns).
			AddRow("m1", "u1", "Notes", "Cells divide.", "text", nil, false, "processed", now, now))

	m, err := repo.GetByID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if m.Text() != "Cells divide." || m.Status != StatusProcessed || m.FileURL != "" {
		t.Fatalf("unexpected material %+v", m)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM study_materials").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateStatus(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2026, time.March, 2, 10, 5, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE study_materials SET status = \\$1, updated_at = \\$2 WHERE id = \\$3").
		WithArgs("processing", at, "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE study_materials").
		WithArgs("processed", at, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateStatus(context.Background(), "m1", StatusProcessing, at); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), "gone", StatusProcessed, at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByUserClampsPage(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM study_materials WHERE user_id = \\$1 ORDER BY created_at DESC").
		WithArgs("u1", 100, 0).
		WillReturnRows(sqlmock.NewRows(materialColumns).
			AddRow("m2", "u1", "B", nil, "pdf", "k/b.pdf", true, "uploaded", now, now).
			AddRow("m1", "u1", "A", "text", "text", nil, false, "processed", now.Add(-time.Hour), now))

	items, err := repo.ListByUser(context.Background(), "u1", 500, -3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(items) != 2 || items[0].ID != "m2" || items[0].Content != nil {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestPGRepoDeleteByUser(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("DELETE FROM study_materials WHERE user_id = \\$1 RETURNING id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("m1").AddRow("m2"))

	ids, err := repo.DeleteByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	if len(ids) != 2 || ids[0] != "m1" || ids[1] != "m2" {
		t.Fatalf("unexpected ids %v", ids)
	}
}
