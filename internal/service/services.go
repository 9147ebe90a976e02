package service

import (
	"time"

	"go.uber.org/zap"

	"readwell/internal/cache"
	"readwell/internal/database"
	"readwell/internal/progression"
	"readwell/internal/repository"
)

// Options carries the collaborators shared by every service. Zero values get
// working defaults: SQL link codes, no cache, no mail, wall clock.
type Options struct {
	Tables         progression.Tables
	Logger         *zap.Logger
	Cache          cache.Cache
	LinkCodes      LinkCodeStore
	Mailer         Mailer
	Clock          Clock
	LinkCodeTTL    time.Duration
	LeaderboardTTL time.Duration
	BulkChunk      int
}

// Services wires every service over one database
type Services struct {
	Notifications *NotificationService
	Messages      *MessageService
	Quizzes       *QuizService
	Streaks       *StreakService
	Achievements  *AchievementService
	Progress      *ProgressService
	Readings      *ReadingService
	Leaderboards  *LeaderboardService
	Assignments   *AssignmentService
	Evaluations   *EvaluationService
	Commendations *CommendationService
	Links         *LinkService
	Accounts      *AccountService
	Backup        *BackupService
}

// New builds the service set
func New(db *database.DB, opts Options) *Services {
	if opts.Tables.XPValues == nil {
		opts.Tables = progression.DefaultTables()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NopCache{}
	}
	if opts.LinkCodes == nil {
		opts.LinkCodes = repository.NewLinkCodeRepository(db)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.LinkCodeTTL <= 0 {
		opts.LinkCodeTTL = 24 * time.Hour
	}
	if opts.LeaderboardTTL <= 0 {
		opts.LeaderboardTTL = 5 * time.Minute
	}
	log := opts.Logger

	users := repository.NewUserRepository(db)
	stories := repository.NewStoryRepository(db)
	readings := repository.NewReadingRepository(db)
	notifications := repository.NewNotificationRepository(db)
	if opts.BulkChunk > 0 {
		notifications.SetChunkSize(opts.BulkChunk)
	}

	notifier := NewNotificationService(db, notifications, users, log.Named("notify"))
	if opts.Mailer != nil {
		notifier.SetMailer(opts.Mailer)
	}
	streaks := NewStreakService(db, opts.Tables, notifier, log.Named("streak"), opts.Clock)
	leaderboards := NewLeaderboardService(readings, repository.NewStreakRepository(db), opts.Cache, opts.LeaderboardTTL,
		log.Named("leaderboard"), opts.Clock)

	return &Services{
		Notifications: notifier,
		Messages:      NewMessageService(repository.NewMessageRepository(db), users, notifier, log.Named("messages"), opts.Clock),
		Quizzes:       NewQuizService(db, stories, users, streaks, log.Named("quiz"), opts.Clock),
		Streaks:       streaks,
		Achievements:  NewAchievementService(db, streaks, notifier, log.Named("achievements"), opts.Clock),
		Progress:      NewProgressService(readings),
		Readings:      NewReadingService(readings, stories, users, streaks, notifier, opts.Cache, log.Named("reading"), opts.Clock),
		Leaderboards:  leaderboards,
		Assignments:   NewAssignmentService(repository.NewAssignmentRepository(db), users, stories, notifier, log.Named("assignments"), opts.Clock),
		Evaluations:   NewEvaluationService(repository.NewEvaluationRepository(db), users, stories, notifier, log.Named("evaluations"), opts.Clock),
		Commendations: NewCommendationService(db, streaks, notifier, log.Named("commendations"), opts.Clock),
		Links:         NewLinkService(users, opts.LinkCodes, opts.LinkCodeTTL, notifier, log.Named("links"), opts.Clock),
		Accounts:      NewAccountService(users, stories, opts.Clock),
		Backup:        NewBackupService(db, log.Named("backup"), opts.Clock),
	}
}
