package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"readwell/internal/cache"
	"readwell/internal/progression"
	"readwell/internal/repository"
)

const leaderboardPrefix = "leaderboard:"

// Period is a leaderboard time window
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "all_time"
)

// allTimeStart predates every stored reading
var allTimeStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Since returns the start of the window ending at now
func (p Period) Since(now time.Time) (time.Time, error) {
	switch p {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonthly:
		return now.AddDate(0, 0, -30), nil
	case PeriodAllTime:
		return allTimeStart, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
}

// LeaderboardEntry is one ranked student
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     int64   `json:"user_id"`
	Name       string  `json:"name"`
	GradeLevel *int    `json:"grade_level,omitempty"`
	Stories    int     `json:"stories"`
	AvgSpeed   float64 `json:"avg_speed"`
}

// Leaderboard is a ranked period snapshot
type Leaderboard struct {
	Period  Period             `json:"period"`
	Grade   int                `json:"grade,omitempty"`
	Entries []LeaderboardEntry `json:"entries"`
}

// RankingEntry is one row of a weekly ranking
type RankingEntry struct {
	Rank   int    `json:"rank"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsMe   bool   `json:"is_me"`
}

// LeaderboardService ranks students, caching period snapshots
type LeaderboardService struct {
	readings *repository.ReadingRepository
	streaks  *repository.StreakRepository
	cache    cache.Cache
	ttl      time.Duration
	log      *zap.Logger
	now      Clock
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(readings *repository.ReadingRepository, streaks *repository.StreakRepository, c cache.Cache, ttl time.Duration, log *zap.Logger, now Clock) *LeaderboardService {
	return &LeaderboardService{readings: readings, streaks: streaks, cache: c, ttl: ttl, log: log, now: now}
}

// Leaderboard ranks students by distinct stories read in the period, then by
// average speed. grade 0 covers every grade; a non-positive limit means 10.
func (s *LeaderboardService) Leaderboard(ctx context.Context, period Period, grade, limit int) (*Leaderboard, error) {
	since, err := period.Since(s.now())
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("%s%s:%d:%d", leaderboardPrefix, period, grade, limit)
	var cached Leaderboard
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.log.Warn("leaderboard cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return &cached, nil
	}

	rows, err := s.readings.Leaderboard(ctx, since, grade, limit)
	if err != nil {
		return nil, err
	}
	board := &Leaderboard{Period: period, Grade: grade, Entries: make([]LeaderboardEntry, 0, len(rows))}
	for i, r := range rows {
		board.Entries = append(board.Entries, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     r.UserID,
			Name:       r.Name,
			GradeLevel: r.GradeLevel,
			Stories:    r.Stories,
			AvgSpeed:   progression.Round1(r.AvgSpeed),
		})
	}

	if err := s.cache.SetJSON(ctx, key, board, s.ttl); err != nil {
		s.log.Warn("leaderboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return board, nil
}

// WeeklyRankings ranks students by total XP ("xp") or by first readings over
// the last seven days ("stories"). Other categories have no data and come back empty.
func (s *LeaderboardService) WeeklyRankings(ctx context.Context, category string, viewerID int64, limit int) ([]RankingEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []repository.RankingRow
	var err error
	switch category {
	case "xp":
		rows, err = s.streaks.TopByXP(ctx, limit)
	case "stories":
		rows, err = s.readings.StoryCountsSince(ctx, s.now().AddDate(0, 0, -7), limit)
	default:
		return []RankingEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]RankingEntry, 0, len(rows))
	for i, r := range rows {
		out = append(out, RankingEntry{Rank: i + 1, UserID: r.UserID, Name: r.Name, Score: r.Score, IsMe: r.UserID == viewerID})
	}
	return out, nil
}
