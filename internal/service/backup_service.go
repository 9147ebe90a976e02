package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"readwell/internal/database"
	"readwell/internal/models"
	"readwell/internal/repository"
)

// BackupVersion is written into every export and checked on import
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version       string                `json:"version"`
	BackupID      string                `json:"backup_id"`
	ExportedAt    time.Time             `json:"exported_at"`
	DatabaseType  string                `json:"database_type"`
	Users         []models.User         `json:"users"`
	Stories       []models.Story        `json:"stories"`
	PreReadings   []models.PreReading   `json:"pre_readings"`
	Practices     []models.Practice     `json:"practices"`
	Streaks       []models.StreakRecord `json:"streaks"`
	Achievements  []models.Achievement  `json:"achievements"`
	Notifications []models.Notification `json:"notifications"`
	Assignments   []models.Assignment   `json:"assignments"`
	Evaluations   []models.Evaluation   `json:"evaluations"`
	Commendations []models.Commendation `json:"commendations"`
	Messages      []models.Message      `json:"messages"`
	QuizQuestions []models.QuizQuestion `json:"quiz_questions"`
	QuizAnswers   []models.QuizAnswer   `json:"quiz_answers"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *zap.Logger
	now Clock
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *zap.Logger, now Clock) *BackupService {
	return &BackupService{db: db, log: log, now: now}
}

// Snapshot reads every table into memory
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		BackupID:     uuid.NewString(),
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	users := repository.NewUserRepository(s.db)
	readings := repository.NewReadingRepository(s.db)
	var err error

	if backup.Users, err = users.List(ctx); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if backup.Stories, err = repository.NewStoryRepository(s.db).List(ctx); err != nil {
		return nil, fmt.Errorf("failed to export stories: %w", err)
	}
	for _, u := range backup.Users {
		pres, err := readings.ListPreReadings(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export pre-readings: %w", err)
		}
		backup.PreReadings = append(backup.PreReadings, pres...)

		practices, err := readings.ListPractices(ctx, u.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to export practices: %w", err)
		}
		backup.Practices = append(backup.Practices, practices...)
	}
	if backup.Streaks, err = repository.NewStreakRepository(s.db).List(ctx); err != nil {
		return nil, fmt.Errorf("failed to export streaks: %w", err)
	}
	if backup.Achievements, err = repository.NewAchievementRepository(s.db).ListByUser(ctx, 0); err != nil {
		return nil, fmt.Errorf("failed to export achievements: %w", err)
	}
	if backup.Notifications, err = repository.NewNotificationRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export notifications: %w", err)
	}
	if backup.Assignments, err = repository.NewAssignmentRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export assignments: %w", err)
	}
	if backup.Evaluations, err = repository.NewEvaluationRepository(s.db).ListByStudent(ctx, 0); err != nil {
		return nil, fmt.Errorf("failed to export evaluations: %w", err)
	}
	if backup.Commendations, err = repository.NewCommendationRepository(s.db).ListByStudent(ctx, 0); err != nil {
		return nil, fmt.Errorf("failed to export commendations: %w", err)
	}
	if backup.Messages, err = repository.NewMessageRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export messages: %w", err)
	}
	quizzes := repository.NewQuizRepository(s.db)
	if backup.QuizQuestions, err = quizzes.ListQuestions(ctx, 0); err != nil {
		return nil, fmt.Errorf("failed to export quiz questions: %w", err)
	}
	if backup.QuizAnswers, err = quizzes.ListAnswers(ctx); err != nil {
		return nil, fmt.Errorf("failed to export quiz answers: %w", err)
	}
	return backup, nil
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) (*BackupData, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(ctx, file)
	if err != nil {
		return nil, err
	}
	s.log.Info("database exported",
		zap.String("path", outputPath),
		zap.String("backup_id", backup.BackupID),
		zap.Int("users", len(backup.Users)),
		zap.Int("stories", len(backup.Stories)),
		zap.Int("pre_readings", len(backup.PreReadings)),
		zap.Int("practices", len(backup.Practices)),
	)
	return backup, nil
}

// ExportToWriter writes the backup document to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	enc := sonic.ConfigDefault.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string, clear bool) (*BackupData, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(ctx, file, clear)
}

// ImportFromReader restores a backup in one transaction. With clear set the
// existing rows are deleted first; otherwise the store should be empty.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader, clear bool) (*BackupData, error) {
	var backup BackupData
	if err := sonic.ConfigDefault.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.log.Info("importing backup",
		zap.String("backup_id", backup.BackupID),
		zap.Time("exported_at", backup.ExportedAt),
		zap.Bool("clear", clear),
	)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clear {
			if err := clearTables(ctx, tx); err != nil {
				return err
			}
		}
		steps := []struct {
			name string
			fn   func(context.Context, *database.Tx, *BackupData) error
		}{
			{"users", importUsers},
			{"stories", importStories},
			{"readings", importReadings},
			{"streaks", importStreaks},
			{"achievements", importAchievements},
			{"notifications", importNotifications},
			{"assignments", importAssignments},
			{"evaluations", importEvaluations},
			{"commendations", importCommendations},
			{"messages", importMessages},
			{"quizzes", importQuizzes},
		}
		for _, step := range steps {
			if err := step.fn(ctx, tx, &backup); err != nil {
				return fmt.Errorf("failed to import %s: %w", step.name, err)
			}
		}
		return resetSequences(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("database import completed", zap.String("backup_id", backup.BackupID))
	return &backup, nil
}

// backupTables in dependency order; clearing walks it backwards
var backupTables = []string{
	"users", "stories", "pre_readings", "practices", "user_streaks", "achievements",
	"notifications", "assignments", "evaluations", "commendations",
	"messages", "quiz_questions", "quiz_answers",
}

func clearTables(ctx context.Context, tx *database.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM link_codes"); err != nil {
		return fmt.Errorf("failed to clear link_codes: %w", err)
	}
	for i := len(backupTables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+backupTables[i]); err != nil {
			return fmt.Errorf("failed to clear %s: %w", backupTables[i], err)
		}
	}
	return nil
}

// resetSequences moves Postgres serials past the imported ids
func resetSequences(ctx context.Context, tx *database.Tx) error {
	switch tx.GetDialect().DriverName() {
	case "postgres", "pgx":
	default:
		return nil
	}
	for _, table := range backupTables {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s", table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

func importUsers(ctx context.Context, tx *database.Tx, b *BackupData) error {
	// links are restored in a second pass since they point at other users
	for _, u := range b.Users {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users (id, name, email, role, grade_level, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			u.ID, u.Name, nullIfEmpty(u.Email), string(u.Role), nullableInt(u.GradeLevel), u.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	for _, u := range b.Users {
		if u.ParentID == nil && u.TeacherID == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, "UPDATE users SET parent_id = ?, teacher_id = ? WHERE id = ?",
			nullableInt64(u.ParentID), nullableInt64(u.TeacherID), u.ID)
		if err != nil {
			return fmt.Errorf("user %d links: %w", u.ID, err)
		}
	}
	return nil
}

func importStories(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, st := range b.Stories {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO stories (id, title, grade_level, word_count, created_at) VALUES (?, ?, ?, ?, ?)",
			st.ID, st.Title, st.GradeLevel, st.WordCount, st.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("story %d: %w", st.ID, err)
		}
	}
	return nil
}

func importReadings(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, p := range b.PreReadings {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO pre_readings (id, user_id, story_id, duration_seconds, word_count, speed_wpm, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			p.ID, p.UserID, p.StoryID, p.DurationSeconds, p.WordCount, p.SpeedWPM, p.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("pre-reading %d: %w", p.ID, err)
		}
	}
	for _, p := range b.Practices {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO practices (id, user_id, story_id, attempt_number, duration_seconds, word_count, speed_wpm, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			p.ID, p.UserID, p.StoryID, p.AttemptNumber, p.DurationSeconds, p.WordCount, p.SpeedWPM, p.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("practice %d: %w", p.ID, err)
		}
	}
	return nil
}

func importStreaks(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, st := range b.Streaks {
		var last any
		if st.LastActivityDate != nil {
			last = st.LastActivityDate.Format("2006-01-02")
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_streaks (id, user_id, current_streak, longest_streak, last_activity_date, total_xp, level, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.UserID, st.CurrentStreak, st.LongestStreak, last, st.TotalXP, max(st.Level, 1), st.CreatedAt.UTC(), st.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("streak for user %d: %w", st.UserID, err)
		}
	}
	return nil
}

func importAchievements(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, a := range b.Achievements {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO achievements (id, user_id, badge_type, earned_at) VALUES (?, ?, ?, ?)",
			a.ID, a.UserID, a.BadgeType, a.EarnedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("achievement %d: %w", a.ID, err)
		}
	}
	return nil
}

func importNotifications(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, n := range b.Notifications {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO notifications (id, user_id, type, title, message, link, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			n.ID, n.UserID, string(n.Type), n.Title, n.Message, nullIfEmpty(n.Link), n.IsRead, n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("notification %d: %w", n.ID, err)
		}
	}
	return nil
}

func importAssignments(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, a := range b.Assignments {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO assignments (id, teacher_id, student_id, story_id, status, assigned_at, due_date, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			a.ID, a.TeacherID, a.StudentID, a.StoryID, string(a.Status), a.AssignedAt.UTC(), nullableTime(a.DueDate), nullableTime(a.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("assignment %d: %w", a.ID, err)
		}
	}
	return nil
}

func importEvaluations(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, e := range b.Evaluations {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO evaluations (id, student_id, story_id, teacher_id, incorrect_words, fluency_score, open_question_score, comment, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.StudentID, e.StoryID, e.TeacherID, e.IncorrectWords,
			nullableInt(e.FluencyScore), nullableInt(e.OpenQuestionScore), e.Comment, e.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("evaluation %d: %w", e.ID, err)
		}
	}
	return nil
}

func importCommendations(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, c := range b.Commendations {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO commendations (id, student_id, teacher_id, commendation_type, title, description, category, rank_position, period, xp_reward, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.StudentID, c.TeacherID, string(c.Type), c.Title, c.Description, c.Category,
			nullableInt(c.Rank), c.Period, c.XPReward, c.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("commendation %d: %w", c.ID, err)
		}
	}
	return nil
}

func importMessages(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, m := range b.Messages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, sender_id, receiver_id, subject, content, is_read, created_at, read_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.SenderID, m.ReceiverID, nullIfEmpty(m.Subject), m.Content, m.IsRead, m.CreatedAt.UTC(), nullableTime(m.ReadAt),
		)
		if err != nil {
			return fmt.Errorf("message %d: %w", m.ID, err)
		}
	}
	return nil
}

func importQuizzes(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, q := range b.QuizQuestions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_questions (id, story_id, question_text, option_a, option_b, option_c, option_d, correct_answer, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, q.StoryID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, q.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("quiz question %d: %w", q.ID, err)
		}
	}
	for _, a := range b.QuizAnswers {
		choices := make([]any, models.MaxQuizChoices)
		for i := range choices {
			if i < len(a.Choices) {
				choices[i] = nullIfEmpty(a.Choices[i])
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_answers (id, user_id, story_id, q1, q2, q3, q4, open_answer, correct_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.UserID, a.StoryID, choices[0], choices[1], choices[2], choices[3],
			nullIfEmpty(a.OpenAnswer), a.CorrectCount, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("quiz answer %d: %w", a.ID, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
