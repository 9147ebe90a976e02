package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// ReadingRepository handles timed readings: first attempts and practices
type ReadingRepository struct {
	db database.DBTX
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(db database.DBTX) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ReadingRepository) WithTx(tx database.DBTX) *ReadingRepository {
	return &ReadingRepository{db: tx}
}

// CreatePreReading records a first attempt
func (r *ReadingRepository) CreatePreReading(ctx context.Context, p *models.PreReading) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO pre_readings (user_id, story_id, duration_seconds, word_count, speed_wpm, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, p.UserID, p.StoryID, p.DurationSeconds, p.WordCount, p.SpeedWPM, p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create pre-reading: %w", err)
	}
	p.ID = id
	return nil
}

// GetPreReading returns the first attempt for a story, or nil when none exists
func (r *ReadingRepository) GetPreReading(ctx context.Context, userID, storyID int64) (*models.PreReading, error) {
	query := `
		SELECT id, user_id, story_id, duration_seconds, word_count, speed_wpm, created_at
		FROM pre_readings
		WHERE user_id = ? AND story_id = ?
	`
	p := &models.PreReading{}
	err := r.db.QueryRowContext(ctx, query, userID, storyID).Scan(
		&p.ID, &p.UserID, &p.StoryID, &p.DurationSeconds, &p.WordCount, &p.SpeedWPM, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pre-reading: %w", err)
	}
	return p, nil
}

// ListPreReadings returns every first attempt of a user, oldest first
func (r *ReadingRepository) ListPreReadings(ctx context.Context, userID int64) ([]models.PreReading, error) {
	query := `
		SELECT id, user_id, story_id, duration_seconds, word_count, speed_wpm, created_at
		FROM pre_readings
		WHERE user_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pre-readings: %w", err)
	}
	defer rows.Close()

	var out []models.PreReading
	for rows.Next() {
		var p models.PreReading
		if err := rows.Scan(&p.ID, &p.UserID, &p.StoryID, &p.DurationSeconds, &p.WordCount, &p.SpeedWPM, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPreReadings counts a user's first attempts
func (r *ReadingRepository) CountPreReadings(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pre_readings WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pre-readings: %w", err)
	}
	return n, nil
}

// CountDistinctStories counts the distinct stories a user has read
func (r *ReadingRepository) CountDistinctStories(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT story_id) FROM pre_readings WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return n, nil
}

// CountPractices counts a user's practice sessions
func (r *ReadingRepository) CountPractices(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM practices WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count practices: %w", err)
	}
	return n, nil
}

// AvgPreReadingSpeed is the mean first-attempt speed, 0 without readings
func (r *ReadingRepository) AvgPreReadingSpeed(ctx context.Context, userID int64) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, "SELECT AVG(speed_wpm) FROM pre_readings WHERE user_id = ?", userID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average speed: %w", err)
	}
	return avg.Float64, nil
}

// Stats gathers the aggregates badges are evaluated against
func (r *ReadingRepository) Stats(ctx context.Context, userID int64) (models.ReadingStats, error) {
	var s models.ReadingStats
	var err error
	if s.Stories, err = r.CountDistinctStories(ctx, userID); err != nil {
		return s, err
	}
	if s.Practices, err = r.CountPractices(ctx, userID); err != nil {
		return s, err
	}
	if s.AvgSpeed, err = r.AvgPreReadingSpeed(ctx, userID); err != nil {
		return s, err
	}
	return s, nil
}

// LastAttemptNumber returns the highest practice attempt for a story, 0 when none
func (r *ReadingRepository) LastAttemptNumber(ctx context.Context, userID, storyID int64) (int, error) {
	var n sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT MAX(attempt_number) FROM practices WHERE user_id = ? AND story_id = ?", userID, storyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to get last attempt: %w", err)
	}
	return int(n.Int64), nil
}

// CreatePractice records a practice session
func (r *ReadingRepository) CreatePractice(ctx context.Context, p *models.Practice) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO practices (user_id, story_id, attempt_number, duration_seconds, word_count, speed_wpm, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		p.UserID, p.StoryID, p.AttemptNumber, p.DurationSeconds, p.WordCount, p.SpeedWPM, p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create practice: %w", err)
	}
	p.ID = id
	return nil
}

// ListPractices returns practices ordered by attempt. storyID 0 lists every story.
func (r *ReadingRepository) ListPractices(ctx context.Context, userID, storyID int64) ([]models.Practice, error) {
	query := `
		SELECT id, user_id, story_id, attempt_number, duration_seconds, word_count, speed_wpm, created_at
		FROM practices
		WHERE user_id = ?
	`
	args := []any{userID}
	if storyID > 0 {
		query += " AND story_id = ?"
		args = append(args, storyID)
	}
	query += " ORDER BY story_id, attempt_number"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list practices: %w", err)
	}
	defer rows.Close()

	var out []models.Practice
	for rows.Next() {
		var p models.Practice
		if err := rows.Scan(&p.ID, &p.UserID, &p.StoryID, &p.AttemptNumber, &p.DurationSeconds, &p.WordCount, &p.SpeedWPM, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LeaderboardRow is one student's standing over a period
type LeaderboardRow struct {
	UserID     int64
	Name       string
	GradeLevel *int
	Stories    int
	AvgSpeed   float64
}

// Leaderboard ranks students by distinct stories read since the given time,
// then by average first-attempt speed. grade 0 includes every grade.
func (r *ReadingRepository) Leaderboard(ctx context.Context, since time.Time, grade, limit int) ([]LeaderboardRow, error) {
	query := `
		SELECT u.id, u.name, u.grade_level, COUNT(DISTINCT p.story_id) AS story_count, AVG(p.speed_wpm) AS avg_speed
		FROM users u
		JOIN pre_readings p ON p.user_id = u.id
		WHERE u.role = ? AND p.created_at >= ?
	`
	args := []any{string(models.RoleStudent), since.UTC()}
	if grade > 0 {
		query += " AND u.grade_level = ?"
		args = append(args, grade)
	}
	query += `
		GROUP BY u.id, u.name, u.grade_level
		ORDER BY story_count DESC, avg_speed DESC, u.id
		LIMIT ?
	`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		var grade sql.NullInt64
		var avg sql.NullFloat64
		if err := rows.Scan(&row.UserID, &row.Name, &grade, &row.Stories, &avg); err != nil {
			return nil, err
		}
		row.GradeLevel = intPtr(grade)
		row.AvgSpeed = avg.Float64
		out = append(out, row)
	}
	return out, rows.Err()
}

// RankingRow is one entry of a single-score ranking
type RankingRow struct {
	UserID     int64
	Name       string
	GradeLevel *int
	Score      int
}

// StoryCountsSince ranks students by first attempts made since the given time
func (r *ReadingRepository) StoryCountsSince(ctx context.Context, since time.Time, limit int) ([]RankingRow, error) {
	query := `
		SELECT u.id, u.name, u.grade_level, COUNT(p.id) AS story_count
		FROM users u
		JOIN pre_readings p ON p.user_id = u.id
		WHERE u.role = ? AND p.created_at >= ?
		GROUP BY u.id, u.name, u.grade_level
		ORDER BY story_count DESC, u.id
		LIMIT ?
	`
	return queryRankings(ctx, r.db, query, string(models.RoleStudent), since.UTC(), limit)
}

func queryRankings(ctx context.Context, db database.DBTX, query string, args ...any) ([]RankingRow, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load rankings: %w", err)
	}
	defer rows.Close()

	var out []RankingRow
	for rows.Next() {
		var row RankingRow
		var grade sql.NullInt64
		if err := rows.Scan(&row.UserID, &row.Name, &grade, &row.Score); err != nil {
			return nil, err
		}
		row.GradeLevel = intPtr(grade)
		out = append(out, row)
	}
	return out, rows.Err()
}
