package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"subfuse/internal/config"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

const itemColumns = `id, request_id, source_path, source_language, target_language,
    detected_language, status, audio_file, transcript_file, subtitle_file,
    final_file, translation_status, error_message, progress_stage,
    progress_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		item              Item
		sourceLanguage    sql.NullString
		detectedLanguage  sql.NullString
		audioFile         sql.NullString
		transcriptFile    sql.NullString
		subtitleFile      sql.NullString
		finalFile         sql.NullString
		translationStatus sql.NullString
		errorMessage      sql.NullString
		progressStage     sql.NullString
		progressMessage   sql.NullString
		createdAt         string
		updatedAt         string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.RequestID,
		&item.SourcePath,
		&sourceLanguage,
		&item.TargetLanguage,
		&detectedLanguage,
		&item.Status,
		&audioFile,
		&transcriptFile,
		&subtitleFile,
		&finalFile,
		&translationStatus,
		&errorMessage,
		&progressStage,
		&progressMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	item.SourceLanguage = sourceLanguage.String
	item.DetectedLanguage = detectedLanguage.String
	item.AudioFile = audioFile.String
	item.TranscriptFile = transcriptFile.String
	item.SubtitleFile = subtitleFile.String
	item.FinalFile = finalFile.String
	item.TranslationStatus = translationStatus.String
	item.ErrorMessage = errorMessage.String
	item.ProgressStage = progressStage.String
	item.ProgressMessage = progressMessage.String
	item.CreatedAt = parseTimestamp(createdAt)
	item.UpdatedAt = parseTimestamp(updatedAt)
	return &item, nil
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}

// NewRequest enqueues a subtitling request for a source video. Each request
// receives a unique id so work directories never collide, even for repeated
// uploads of the same input and target language.
func (s *Store) NewRequest(ctx context.Context, sourcePath, sourceLanguage, targetLanguage string) (*Item, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return nil, errors.New("source path required")
	}
	if strings.TrimSpace(targetLanguage) == "" {
		return nil, errors.New("target language required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	requestID := uuid.NewString()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            request_id, source_path, source_language, target_language,
            status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		requestID,
		sourcePath,
		nullableString(sourceLanguage),
		targetLanguage,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetByRequestID fetches a queue item by its request identifier.
func (s *Store) GetByRequestID(ctx context.Context, requestID string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE request_id = ?`, requestID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by request id: %w", err)
	}
	return item, nil
}

// ClaimForProcessing atomically moves an item from a ready status to its
// processing status. The status guard makes exactly one caller win when the
// daemon worker and a synchronous request race for the same item.
func (s *Store) ClaimForProcessing(ctx context.Context, id int64, from, to Status) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, now, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("claim item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items
         SET source_path = ?, source_language = ?, target_language = ?,
             detected_language = ?, status = ?, audio_file = ?,
             transcript_file = ?, subtitle_file = ?, final_file = ?,
             translation_status = ?, error_message = ?, progress_stage = ?,
             progress_message = ?, updated_at = ?
         WHERE id = ?`,
		item.SourcePath,
		nullableString(item.SourceLanguage),
		item.TargetLanguage,
		nullableString(item.DetectedLanguage),
		item.Status,
		nullableString(item.AudioFile),
		nullableString(item.TranscriptFile),
		nullableString(item.SubtitleFile),
		nullableString(item.FinalFile),
		nullableString(item.TranslationStatus),
		nullableString(item.ErrorMessage),
		nullableString(item.ProgressStage),
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// List returns queue items filtered by status set (or all items when no
// status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the oldest item matching any of the provided
// statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves a failed item back to pending so the daemon picks it up
// again from the start.
func (s *Store) RetryFailed(ctx context.Context, id int64) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, error_message = NULL, progress_stage = NULL,
             progress_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusPending, now, id, StatusFailed,
	)
	if err != nil {
		return false, fmt.Errorf("retry failed item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ResetStuckProcessing rolls in-flight items back to the previous completed
// status. Used at daemon startup to recover from a crash mid-stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	var total int64
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, transition := range stageRollbackTransitions {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE queue_items SET status = ?, updated_at = ? WHERE status = ?`,
			transition.to, now, transition.from,
		)
		if err != nil {
			return total, fmt.Errorf("reset %s items: %w", transition.from, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// Summary aggregates queue counts for the status endpoint.
func (s *Store) Summary(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize queue: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, err
		}
		summary.Total += count
		switch {
		case status == StatusPending:
			summary.Pending += count
		case status == StatusFailed:
			summary.Failed += count
		case status == StatusCompleted:
			summary.Completed += count
		case IsProcessingStatus(status):
			summary.Processing += count
		}
	}
	return summary, rows.Err()
}
