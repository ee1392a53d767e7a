package worker

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/scribeworks/contentq/internal/database"
	"github.com/scribeworks/contentq/internal/dedup"
	"github.com/scribeworks/contentq/internal/domain"
	"github.com/scribeworks/contentq/internal/logger"
	"github.com/scribeworks/contentq/internal/metrics"
	"github.com/scribeworks/contentq/internal/publish"
)

// fakePublisher records publish calls and returns a fixed external post ID.
type fakePublisher struct {
	channel    string
	externalID string
	err        error
	calls      int
}

func (f *fakePublisher) Channel() string { return f.channel }

func (f *fakePublisher) Publish(_ context.Context, _ *domain.ContentIdea, _ *domain.Artifact) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.externalID, nil
}

type workerFixture struct {
	worker  *PublishWorker
	mock    sqlmock.Sqlmock
	redis   *redis.Client
	pub     *fakePublisher
	metrics *metrics.Tracker
	ideaID  uuid.UUID
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	db := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewNopLogger()
	repo := database.NewRepository(db, log)
	tracker := dedup.NewTracker(client, time.Hour, log)
	metricsTracker := metrics.NewTracker(client, []string{"telegram"}, log)
	pub := &fakePublisher{channel: "telegram", externalID: "tg-1001"}

	w := NewPublishWorker(repo, []publish.Publisher{pub}, tracker, metricsTracker, Config{
		PollInterval: time.Minute,
		BatchSize:    5,
	}, log)

	return &workerFixture{
		worker:  w,
		mock:    mock,
		redis:   client,
		pub:     pub,
		metrics: metricsTracker,
		ideaID:  uuid.New(),
	}
}

func (f *workerFixture) candidateRow() []driver.Value {
	now := time.Now().UTC()
	return []driver.Value{
		f.ideaID.String(), "RBI rate decision preview", "market-update", "generated", "high", 5000,
		[]byte("{rbi}"), []byte("{}"), now,
		f.ideaID.String(), "RBI holds repo rate at 6.5%", nil, false, now,
	}
}

var candidateColumns = []string{
	"id", "title", "content_type", "status", "urgency", "estimated_reach",
	"keywords", "data_points", "created_at",
	"idea_id", "rendered_text", "visual_path", "humanized", "updated_at",
}

func (f *workerFixture) expectCandidates(rows *sqlmock.Rows) {
	f.mock.ExpectQuery("SELECT(.+)FROM content_ideas i(.+)JOIN artifacts a").
		WithArgs(5).
		WillReturnRows(rows)
}

func (f *workerFixture) expectNotPublished() {
	f.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(f.ideaID, "telegram").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
}

func (f *workerFixture) expectRecordSuccess() {
	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT status FROM content_ideas WHERE id = (.+) FOR UPDATE").
		WithArgs(f.ideaID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("generated"))
	f.mock.ExpectQuery("INSERT INTO publication_records").
		WillReturnRows(sqlmock.NewRows([]string{"id", "idea_id", "channel", "external_post_id", "published_at"}).
			AddRow(uuid.New().String(), f.ideaID.String(), "telegram", "tg-1001", time.Now().UTC()))
	f.mock.ExpectExec("INSERT INTO artifacts").
		WithArgs(f.ideaID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec("UPDATE content_ideas SET status = 'published'").
		WithArgs(f.ideaID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()
}

func TestProcessOncePublishesCandidate(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.expectCandidates(sqlmock.NewRows(candidateColumns).AddRow(f.candidateRow()...))
	f.expectNotPublished()
	f.expectRecordSuccess()

	f.worker.processOnce(ctx)

	if f.pub.calls != 1 {
		t.Errorf("publisher calls = %d, want 1", f.pub.calls)
	}
	if !f.worker.tracker.HasPublished(ctx, f.ideaID, "telegram") {
		t.Error("publication was not cached after success")
	}

	stats, err := f.metrics.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.TotalPublished != 1 {
		t.Errorf("TotalPublished = %d, want 1", stats.TotalPublished)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestProcessOnceSkipsCachedPublication(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	if err := f.worker.tracker.MarkPublished(ctx, f.ideaID, "telegram"); err != nil {
		t.Fatalf("MarkPublished() error: %v", err)
	}

	// Only the candidate query runs; the cached pair short-circuits everything else.
	f.expectCandidates(sqlmock.NewRows(candidateColumns).AddRow(f.candidateRow()...))

	f.worker.processOnce(ctx)

	if f.pub.calls != 0 {
		t.Errorf("publisher calls = %d, want 0", f.pub.calls)
	}

	stats, err := f.metrics.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.TotalSkipped != 1 {
		t.Errorf("TotalSkipped = %d, want 1", stats.TotalSkipped)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestProcessOnceSkipsRecordedPublication(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.expectCandidates(sqlmock.NewRows(candidateColumns).AddRow(f.candidateRow()...))
	f.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(f.ideaID, "telegram").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	f.worker.processOnce(ctx)

	if f.pub.calls != 0 {
		t.Errorf("publisher calls = %d, want 0", f.pub.calls)
	}
	// The database pre-check warms the cache so the next pass skips cheaply.
	if !f.worker.tracker.HasPublished(ctx, f.ideaID, "telegram") {
		t.Error("publication was not cached after database pre-check")
	}
}

func TestProcessOnceLosesRecordRace(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.expectCandidates(sqlmock.NewRows(candidateColumns).AddRow(f.candidateRow()...))
	f.expectNotPublished()
	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT status FROM content_ideas WHERE id = (.+) FOR UPDATE").
		WithArgs(f.ideaID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("published"))
	f.mock.ExpectQuery("INSERT INTO publication_records").
		WillReturnError(&pq.Error{Code: "23505"})
	f.mock.ExpectRollback()

	f.worker.processOnce(ctx)

	stats, err := f.metrics.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.TotalSkipped != 1 {
		t.Errorf("TotalSkipped = %d, want 1", stats.TotalSkipped)
	}
	if !f.worker.tracker.HasPublished(ctx, f.ideaID, "telegram") {
		t.Error("lost race was not cached")
	}
}

func TestProcessOncePublishFailureCountsError(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.pub.err = errors.New("telegram: 502 bad gateway")

	f.expectCandidates(sqlmock.NewRows(candidateColumns).AddRow(f.candidateRow()...))
	f.expectNotPublished()

	f.worker.processOnce(ctx)

	stats, err := f.metrics.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.TotalErrors != 1 {
		t.Errorf("TotalErrors = %d, want 1", stats.TotalErrors)
	}
	// A failed post must never be cached as published.
	if f.worker.tracker.HasPublished(ctx, f.ideaID, "telegram") {
		t.Error("failed publication was cached")
	}
}

func TestStartStop(t *testing.T) {
	f := newWorkerFixture(t)

	// The run loop processes immediately on start.
	f.expectCandidates(sqlmock.NewRows(candidateColumns))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if f.worker.IsRunning() {
		t.Error("IsRunning() = true before Start")
	}

	f.worker.Start(ctx)
	if !f.worker.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	// Second Start is a no-op.
	f.worker.Start(ctx)

	f.worker.Stop()
	// Second Stop must not panic on the closed channel.
	f.worker.Stop()
}

func TestConfigDefaults(t *testing.T) {
	w := NewPublishWorker(nil, nil, nil, nil, Config{}, logger.NewNopLogger())
	if w.pollInterval != defaultPollInterval {
		t.Errorf("pollInterval = %v, want %v", w.pollInterval, defaultPollInterval)
	}
	if w.batchSize != defaultBatchSize {
		t.Errorf("batchSize = %d, want %d", w.batchSize, defaultBatchSize)
	}
	if w.publishTimeout != defaultPublishTimeout {
		t.Errorf("publishTimeout = %v, want %v", w.publishTimeout, defaultPublishTimeout)
	}
}
