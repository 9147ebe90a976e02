package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"readwell/internal/database"
	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

// Clock returns the current time; tests inject a fixed one
type Clock func() time.Time

// ActivityResult is what one recorded activity changed
type ActivityResult struct {
	Action        progression.Action         `json:"action"`
	XPAwarded     int                        `json:"xp_awarded"`
	BonusXP       int                        `json:"bonus_xp"`
	TotalXP       int                        `json:"total_xp"`
	Level         int                        `json:"level"`
	LeveledUp     bool                       `json:"leveled_up"`
	CurrentStreak int                        `json:"current_streak"`
	LongestStreak int                        `json:"longest_streak"`
	Transition    progression.TransitionKind `json:"-"`
	StreakLost    int                        `json:"streak_lost,omitempty"`
}

// StreakService owns the per-user streak, XP and level record
type StreakService struct {
	db       *database.DB
	streaks  *repository.StreakRepository
	tables   progression.Tables
	notifier *NotificationService
	log      *zap.Logger
	now      Clock
}

// NewStreakService creates a new streak service
func NewStreakService(db *database.DB, tables progression.Tables, notifier *NotificationService, log *zap.Logger, now Clock) *StreakService {
	return &StreakService{
		db:       db,
		streaks:  repository.NewStreakRepository(db),
		tables:   tables,
		notifier: notifier,
		log:      log,
		now:      now,
	}
}

// Tables exposes the XP and level tables the service runs on
func (s *StreakService) Tables() progression.Tables {
	return s.tables
}

// getOrCreate loads the user's record, creating a fresh level 1 one when missing
func getOrCreate(ctx context.Context, streaks *repository.StreakRepository, userID int64) (*models.StreakRecord, error) {
	rec, err := streaks.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	rec = &models.StreakRecord{UserID: userID, Level: 1}
	if err := streaks.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordActivity applies the daily streak transition and awards the action's
// XP, plus any streak bonus, in a single transaction. Unknown actions are
// rejected before anything is written.
func (s *StreakService) RecordActivity(ctx context.Context, userID int64, action progression.Action) (*ActivityResult, error) {
	amount, err := s.tables.XPFor(action)
	if err != nil {
		return nil, err
	}

	res := &ActivityResult{Action: action, XPAwarded: amount}
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		streaks := s.streaks.WithTx(tx)
		rec, err := getOrCreate(ctx, streaks, userID)
		if err != nil {
			return err
		}

		next, tr := s.tables.AdvanceStreak(progression.StreakState{
			Current:      rec.CurrentStreak,
			Longest:      rec.LongestStreak,
			LastActivity: rec.LastActivityDate,
		}, s.now())
		rec.CurrentStreak = next.Current
		rec.LongestStreak = next.Longest
		rec.LastActivityDate = next.LastActivity
		res.Transition = tr.Kind
		res.StreakLost = tr.Lost

		if tr.Bonus != "" {
			if bonus, err := s.tables.XPFor(tr.Bonus); err == nil {
				res.BonusXP = bonus
			}
		}

		prevLevel := rec.Level
		rec.TotalXP += res.BonusXP + amount
		rec.Level = s.tables.LevelForXP(rec.TotalXP)
		res.LeveledUp = rec.Level > prevLevel
		if err := streaks.Update(ctx, rec); err != nil {
			return err
		}

		res.TotalXP = rec.TotalXP
		res.Level = rec.Level
		res.CurrentStreak = rec.CurrentStreak
		res.LongestStreak = rec.LongestStreak
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	s.log.Debug("activity recorded",
		zap.Int64("user_id", userID),
		zap.String("action", string(action)),
		zap.Stringer("streak", res.Transition),
		zap.Int("total_xp", res.TotalXP),
	)

	if res.BonusXP > 0 {
		s.notifier.NotifyStreakBonus(ctx, userID, res.CurrentStreak, res.BonusXP)
	}
	if res.Transition == progression.StreakReset {
		s.notifier.NotifyStreakLost(ctx, userID, res.StreakLost)
	}
	if res.LeveledUp {
		s.notifier.NotifyLevelUp(ctx, userID, res.Level)
	}
	s.notifier.NotifyXPEarned(ctx, userID, action, amount)
	return res, nil
}

// UpdateStreak applies only the daily streak transition, without XP for an action
func (s *StreakService) UpdateStreak(ctx context.Context, userID int64) (*StreakStatus, error) {
	var bonus int
	var tr progression.Transition
	var rec *models.StreakRecord
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		streaks := s.streaks.WithTx(tx)
		var err error
		rec, err = getOrCreate(ctx, streaks, userID)
		if err != nil {
			return err
		}

		var next progression.StreakState
		next, tr = s.tables.AdvanceStreak(progression.StreakState{
			Current:      rec.CurrentStreak,
			Longest:      rec.LongestStreak,
			LastActivity: rec.LastActivityDate,
		}, s.now())
		rec.CurrentStreak = next.Current
		rec.LongestStreak = next.Longest
		rec.LastActivityDate = next.LastActivity

		if tr.Bonus != "" {
			bonus, _ = s.tables.XPFor(tr.Bonus)
			rec.TotalXP += bonus
			rec.Level = s.tables.LevelForXP(rec.TotalXP)
		}
		return streaks.Update(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}

	if bonus > 0 {
		s.notifier.NotifyStreakBonus(ctx, userID, rec.CurrentStreak, bonus)
	}
	if tr.Kind == progression.StreakReset {
		s.notifier.NotifyStreakLost(ctx, userID, tr.Lost)
	}
	return s.statusOf(rec), nil
}

// AddXP grants a raw XP amount outside the action table
func (s *StreakService) AddXP(ctx context.Context, userID int64, amount int) (*models.StreakRecord, error) {
	var rec *models.StreakRecord
	var leveledUp bool
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		rec, leveledUp, err = s.AddXPTx(ctx, tx, userID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	if leveledUp {
		s.notifier.NotifyLevelUp(ctx, userID, rec.Level)
	}
	return rec, nil
}

// AddXPTx adds amount to the user's total inside the caller's transaction and
// reports whether the level went up. XP only grows, so negative amounts are rejected.
func (s *StreakService) AddXPTx(ctx context.Context, tx database.DBTX, userID int64, amount int) (*models.StreakRecord, bool, error) {
	if amount < 0 {
		return nil, false, fmt.Errorf("%w: xp amount %d is negative", validation.ErrInvalid, amount)
	}
	streaks := s.streaks.WithTx(tx)
	rec, err := getOrCreate(ctx, streaks, userID)
	if err != nil {
		return nil, false, err
	}
	prev := rec.Level
	rec.TotalXP += amount
	rec.Level = s.tables.LevelForXP(rec.TotalXP)
	if err := streaks.Update(ctx, rec); err != nil {
		return nil, false, err
	}
	return rec, rec.Level > prev, nil
}

// StreakStatus is the read view of a user's streak
type StreakStatus struct {
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	IsActiveToday    bool       `json:"is_active_today"`
}

func (s *StreakService) statusOf(rec *models.StreakRecord) *StreakStatus {
	st := &StreakStatus{
		CurrentStreak:    rec.CurrentStreak,
		LongestStreak:    rec.LongestStreak,
		LastActivityDate: rec.LastActivityDate,
	}
	if rec.LastActivityDate != nil {
		st.IsActiveToday = progression.Day(*rec.LastActivityDate).Equal(progression.Day(s.now()))
	}
	return st
}

// StreakStatus returns the user's streak; users without a record get zeros
func (s *StreakService) StreakStatus(ctx context.Context, userID int64) (*StreakStatus, error) {
	rec, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &StreakStatus{}, nil
	}
	return s.statusOf(rec), nil
}

// XPStatus is the read view of a user's XP and level
type XPStatus struct {
	TotalXP   int                        `json:"total_xp"`
	Level     int                        `json:"level"`
	LevelName string                     `json:"level_name"`
	NextLevel progression.LevelProgress  `json:"next_level"`
	XPValues  map[progression.Action]int `json:"xp_values"`
}

// XPStatus returns the user's XP, level and progress toward the next level
func (s *StreakService) XPStatus(ctx context.Context, userID int64) (*XPStatus, error) {
	rec, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	xp, level := 0, 1
	if rec != nil {
		xp, level = rec.TotalXP, rec.Level
	}
	return &XPStatus{
		TotalXP:   xp,
		Level:     level,
		LevelName: progression.LevelName(level),
		NextLevel: s.tables.NextLevel(xp, level),
		XPValues:  s.tables.XPValues,
	}, nil
}
