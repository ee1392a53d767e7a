package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/scribeworks/contentq/internal/database"
	"github.com/scribeworks/contentq/internal/domain"
)

var publicationColumns = []string{"id", "idea_id", "channel", "external_post_id", "published_at"}

func expectIdeaLock(mock sqlmock.Sqlmock, ideaID uuid.UUID, status domain.IdeaStatus) {
	mock.ExpectQuery("SELECT status FROM content_ideas WHERE id = (.+) FOR UPDATE").
		WithArgs(ideaID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(status)))
}

func TestRecordPublication(t *testing.T) {
	ctx := context.Background()
	ideaID := uuid.New()
	req := &domain.PublicationCreateRequest{
		Channel:        "telegram",
		ExternalPostID: "tg-1001",
	}

	t.Run("generated idea is recorded and advanced to published", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectBegin()
		expectIdeaLock(mock, ideaID, domain.IdeaStatusGenerated)
		mock.ExpectQuery("INSERT INTO publication_records").
			WillReturnRows(sqlmock.NewRows(publicationColumns).
				AddRow(uuid.New().String(), ideaID.String(), "telegram", "tg-1001", time.Now().UTC()))
		mock.ExpectExec("INSERT INTO artifacts").
			WithArgs(ideaID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("UPDATE content_ideas SET status = 'published'").
			WithArgs(ideaID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		record, err := repo.RecordPublication(ctx, ideaID, req)
		if err != nil {
			t.Fatalf("RecordPublication() error: %v", err)
		}
		if record.Channel != "telegram" || record.ExternalPostID != "tg-1001" {
			t.Errorf("record = %+v", record)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("published idea may record an additional channel without a status update", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectBegin()
		expectIdeaLock(mock, ideaID, domain.IdeaStatusPublished)
		mock.ExpectQuery("INSERT INTO publication_records").
			WillReturnRows(sqlmock.NewRows(publicationColumns).
				AddRow(uuid.New().String(), ideaID.String(), "twitter", "tw-42", time.Now().UTC()))
		mock.ExpectExec("INSERT INTO artifacts").
			WithArgs(ideaID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		_, err := repo.RecordPublication(ctx, ideaID, &domain.PublicationCreateRequest{
			Channel:        "twitter",
			ExternalPostID: "tw-42",
		})
		if err != nil {
			t.Fatalf("RecordPublication() error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("duplicate channel maps the unique violation", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectBegin()
		expectIdeaLock(mock, ideaID, domain.IdeaStatusPublished)
		mock.ExpectQuery("INSERT INTO publication_records").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "publication_records_idea_channel_key"})
		mock.ExpectRollback()

		_, err := repo.RecordPublication(ctx, ideaID, req)
		if !errors.Is(err, domain.ErrDuplicatePublication) {
			t.Fatalf("RecordPublication() error = %v, want ErrDuplicatePublication", err)
		}
	})

	t.Run("unknown idea returns not found", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM content_ideas WHERE id = (.+) FOR UPDATE").
			WithArgs(ideaID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.RecordPublication(ctx, ideaID, req)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("RecordPublication() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("pending idea returns invalid state", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectBegin()
		expectIdeaLock(mock, ideaID, domain.IdeaStatusPending)
		mock.ExpectRollback()

		_, err := repo.RecordPublication(ctx, ideaID, req)
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("RecordPublication() error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("missing channel fails validation before the transaction", func(t *testing.T) {
		repo, _, closeDB := newMockRepo(t)
		defer closeDB()

		_, err := repo.RecordPublication(ctx, ideaID, &domain.PublicationCreateRequest{
			ExternalPostID: "tg-1001",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("RecordPublication() error = %v, want ErrValidation", err)
		}
	})
}

func TestCheckPublished(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	ctx := context.Background()
	ideaID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(ideaID, "telegram").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(ideaID, "twitter").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	published, err := repo.CheckPublished(ctx, ideaID, "telegram")
	if err != nil {
		t.Fatalf("CheckPublished() error: %v", err)
	}
	if !published {
		t.Error("CheckPublished(telegram) = false, want true")
	}

	published, err = repo.CheckPublished(ctx, ideaID, "twitter")
	if err != nil {
		t.Fatalf("CheckPublished() error: %v", err)
	}
	if published {
		t.Error("CheckPublished(twitter) = true, want false")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListPublications(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	ctx := context.Background()

	t.Run("channel filter and default limit", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM publication_records WHERE 1=1 AND channel =").
			WithArgs("telegram", 100, 0).
			WillReturnRows(sqlmock.NewRows(publicationColumns).
				AddRow(uuid.New().String(), uuid.New().String(), "telegram", "tg-1", time.Now().UTC()))

		records, err := repo.ListPublications(ctx, &database.PublicationFilter{Channel: "telegram"})
		if err != nil {
			t.Fatalf("ListPublications() error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
	})

	t.Run("limit is capped", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM publication_records WHERE 1=1").
			WithArgs(1000, 0).
			WillReturnRows(sqlmock.NewRows(publicationColumns))

		_, err := repo.ListPublications(ctx, &database.PublicationFilter{Limit: 5000})
		if err != nil {
			t.Fatalf("ListPublications() error: %v", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetChannelStats(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	last := time.Now().UTC()
	mock.ExpectQuery("SELECT(.+)FROM publication_records(.+)GROUP BY channel").
		WillReturnRows(sqlmock.NewRows([]string{"channel", "total_published", "last_published"}).
			AddRow("telegram", int64(12), last).
			AddRow("twitter", int64(3), last))

	stats, err := repo.GetChannelStats(context.Background())
	if err != nil {
		t.Fatalf("GetChannelStats() error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d channels, want 2", len(stats))
	}
	if stats[0].Channel != "telegram" || stats[0].TotalPublished != 12 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
}
