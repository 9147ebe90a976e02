package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"readwell/internal/database"
	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/repository"
)

// AchievementService evaluates and lists badges
type AchievementService struct {
	db           *database.DB
	achievements *repository.AchievementRepository
	readings     *repository.ReadingRepository
	streak       *StreakService
	notifier     *NotificationService
	log          *zap.Logger
	now          Clock
}

// NewAchievementService creates a new achievement service
func NewAchievementService(db *database.DB, streak *StreakService, notifier *NotificationService, log *zap.Logger, now Clock) *AchievementService {
	return &AchievementService{
		db:           db,
		achievements: repository.NewAchievementRepository(db),
		readings:     repository.NewReadingRepository(db),
		streak:       streak,
		notifier:     notifier,
		log:          log,
		now:          now,
	}
}

// CheckAchievements awards every badge the user now qualifies for and does
// not hold yet. Each award also grants badge_earned XP in the same
// transaction. Running it again without new activity awards nothing.
func (s *AchievementService) CheckAchievements(ctx context.Context, userID int64) ([]progression.BadgeDefinition, error) {
	stats, err := s.readings.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	badgeStats := progression.BadgeStats{
		Stories:   stats.Stories,
		Practices: stats.Practices,
		AvgSpeed:  stats.AvgSpeed,
	}
	bonus, err := s.streak.Tables().XPFor(progression.ActionBadgeEarned)
	if err != nil {
		return nil, err
	}

	var awarded []progression.BadgeDefinition
	var leveledUp bool
	var level int
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		achievements := s.achievements.WithTx(tx)
		for _, def := range progression.Catalog() {
			if def.Disabled || !def.Badge.Qualifies(badgeStats) {
				continue
			}
			has, err := achievements.Has(ctx, userID, string(def.Badge))
			if err != nil {
				return err
			}
			if has {
				continue
			}
			if err := achievements.Create(ctx, &models.Achievement{
				UserID:    userID,
				BadgeType: string(def.Badge),
				EarnedAt:  s.now().UTC(),
			}); err != nil {
				return err
			}
			awarded = append(awarded, def)
		}

		if len(awarded) == 0 {
			return nil
		}
		rec, up, err := s.streak.AddXPTx(ctx, tx, userID, bonus*len(awarded))
		if err != nil {
			return err
		}
		leveledUp, level = up, rec.Level
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check achievements: %w", err)
	}

	for _, def := range awarded {
		s.log.Info("badge awarded", zap.Int64("user_id", userID), zap.String("badge", string(def.Badge)))
		s.notifier.NotifyAchievement(ctx, userID, def)
	}
	if leveledUp {
		s.notifier.NotifyLevelUp(ctx, userID, level)
	}
	if awarded == nil {
		awarded = []progression.BadgeDefinition{}
	}
	return awarded, nil
}

// EarnedBadge is a held badge with its display data
type EarnedBadge struct {
	progression.BadgeDefinition
	EarnedAt string `json:"earned_at"`
}

// ListBadges returns the user's badges, newest first
func (s *AchievementService) ListBadges(ctx context.Context, userID int64) ([]EarnedBadge, error) {
	list, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]EarnedBadge, 0, len(list))
	for _, a := range list {
		def, _ := progression.LookupBadge(a.BadgeType)
		out = append(out, EarnedBadge{BadgeDefinition: def, EarnedAt: a.EarnedAt.Format("2006-01-02T15:04:05Z07:00")})
	}
	return out, nil
}

// Overview is the combined gamification picture of a user
type Overview struct {
	XP     *XPStatus     `json:"xp"`
	Streak *StreakStatus `json:"streak"`
	Badges struct {
		Earned    int `json:"earned"`
		Total     int `json:"total"`
		Available int `json:"available"`
	} `json:"badges"`
	Reading models.ReadingStats `json:"reading"`
}

// Overview gathers XP, streak, badge counts and reading aggregates
func (s *AchievementService) Overview(ctx context.Context, userID int64) (*Overview, error) {
	xp, err := s.streak.XPStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	streak, err := s.streak.StreakStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.readings.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.AvgSpeed = progression.Round1(stats.AvgSpeed)

	o := &Overview{XP: xp, Streak: streak, Reading: stats}
	o.Badges.Earned = len(earned)
	o.Badges.Total = len(progression.Catalog())
	o.Badges.Available = max(0, o.Badges.Total-o.Badges.Earned)
	return o, nil
}
