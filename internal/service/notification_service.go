package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"readwell/internal/database"
	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

const (
	linkStudentDashboard    = "/student/dashboard"
	linkStudentAchievements = "/student/achievements"
	linkParentDashboard     = "/parent/dashboard"
	linkTeacherDashboard    = "/teacher/dashboard"
	linkMessages            = "/messages"
)

// Mailer mirrors a notification to the recipient's inbox
type Mailer interface {
	SendNotificationEmail(ctx context.Context, toEmail, toName, title, message, link string) error
}

// NotificationService creates inbox entries from fixed templates. Template
// helpers are best-effort: failures are logged and never reach the caller.
type NotificationService struct {
	db            *database.DB
	notifications *repository.NotificationRepository
	users         *repository.UserRepository
	mailer        Mailer
	log           *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *database.DB, notifications *repository.NotificationRepository, users *repository.UserRepository, log *zap.Logger) *NotificationService {
	return &NotificationService{db: db, notifications: notifications, users: users, log: log}
}

// SetMailer enables e-mail mirroring for the notification kinds that use it
func (s *NotificationService) SetMailer(m Mailer) {
	s.mailer = m
}

// Create inserts one notification and returns it
func (s *NotificationService) Create(ctx context.Context, userID int64, typ models.NotificationType, title, message, link string) (*models.Notification, error) {
	n := &models.Notification{UserID: userID, Type: typ, Title: title, Message: message, Link: link}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) notify(ctx context.Context, userID int64, typ models.NotificationType, title, message, link string) {
	if _, err := s.Create(ctx, userID, typ, title, message, link); err != nil {
		s.log.Warn("notification failed",
			zap.String("op", "notify"),
			zap.String("type", string(typ)),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// mirror sends the notification by e-mail when a mailer is set and the user has an address
func (s *NotificationService) mirror(ctx context.Context, userID int64, title, message, link string) {
	if s.mailer == nil {
		return
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u == nil || u.Email == "" {
		return
	}
	if err := s.mailer.SendNotificationEmail(ctx, u.Email, u.Name, title, message, link); err != nil {
		s.log.Warn("notification email failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// NotifyEvaluation tells a parent that a teacher evaluated their child
func (s *NotificationService) NotifyEvaluation(ctx context.Context, parentID int64, teacherName, studentName, storyTitle string) {
	title := "Yeni Öğretmen Değerlendirmesi"
	message := fmt.Sprintf("%s, %s için yeni bir değerlendirme yaptı", teacherName, studentName)
	if storyTitle != "" {
		message += fmt.Sprintf(" (%s)", storyTitle)
	}
	s.notify(ctx, parentID, models.NotificationEvaluation, title, message, linkParentDashboard)
	s.mirror(ctx, parentID, title, message, linkParentDashboard)
}

// NotifyAchievement tells a student about a new badge
func (s *NotificationService) NotifyAchievement(ctx context.Context, userID int64, badge progression.BadgeDefinition) {
	s.notify(ctx, userID, models.NotificationAchievement, "🎉 Yeni Rozet: "+badge.Name, badge.Description, linkStudentDashboard)
}

// MilestoneKind selects a progress milestone template
type MilestoneKind string

const (
	MilestoneStories  MilestoneKind = "stories"
	MilestonePractice MilestoneKind = "practice"
	MilestoneSpeed    MilestoneKind = "speed"
)

// NotifyProgressMilestone tells the student, and their parent when linked,
// about a reading milestone
func (s *NotificationService) NotifyProgressMilestone(ctx context.Context, student *models.User, kind MilestoneKind, value int) {
	var title, message string
	switch kind {
	case MilestoneStories:
		title = "📚 İlerleme Kaydedildi"
		message = fmt.Sprintf("%d. hikayeni tamamladın! Harika gidiyorsun!", value)
	case MilestonePractice:
		title = "🔄 Pratik Başarısı"
		message = fmt.Sprintf("%d. pratik seansını tamamladın!", value)
	case MilestoneSpeed:
		title = "⚡ Hız Artışı"
		message = fmt.Sprintf("Okuma hızın %d kelime/dakikaya ulaştı!", value)
	default:
		return
	}

	s.notify(ctx, student.ID, models.NotificationProgress, title, message, linkStudentDashboard)
	if student.ParentID != nil {
		s.notify(ctx, *student.ParentID, models.NotificationProgress,
			fmt.Sprintf("📊 %s - %s", student.Name, title), message, linkParentDashboard)
	}
}

// NotifyLevelUp congratulates a student on a new level
func (s *NotificationService) NotifyLevelUp(ctx context.Context, userID int64, level int) {
	name := progression.LevelName(level)
	s.notify(ctx, userID, models.NotificationLevelUp,
		fmt.Sprintf("🎊 Seviye Atladın: %s!", name),
		fmt.Sprintf("Tebrikler! Artık Seviye %d - %s oldun! Okumaya devam et!", level, name),
		linkStudentDashboard)
}

// NotifyStreakBonus announces a streak bonus
func (s *NotificationService) NotifyStreakBonus(ctx context.Context, userID int64, days, xp int) {
	s.notify(ctx, userID, models.NotificationStreak,
		fmt.Sprintf("🔥 %d Gün Seri!", days),
		fmt.Sprintf("Harika! %d gün üst üste okudun ve +%d XP bonus kazandın!", days, xp),
		linkStudentDashboard)
}

// NotifyStreakLost reports a broken streak. Streaks shorter than 3 days pass silently.
func (s *NotificationService) NotifyStreakLost(ctx context.Context, userID int64, lost int) {
	if lost < 3 {
		return
	}
	s.notify(ctx, userID, models.NotificationStreak, "😢 Seri Kırıldı",
		fmt.Sprintf("%d günlük seri sona erdi. Yeniden başla!", lost),
		linkStudentDashboard)
}

// NotifyAssignment tells a student about a new assignment
func (s *NotificationService) NotifyAssignment(ctx context.Context, studentID int64, teacherName, storyTitle string, due *time.Time) {
	title := "📝 Yeni Ödev"
	message := fmt.Sprintf("%s sana yeni bir ödev verdi: %s", teacherName, storyTitle)
	if due != nil {
		message += ". Son tarih: " + due.Format("02/01/2006")
	}
	s.notify(ctx, studentID, models.NotificationAssignment, title, message, linkStudentDashboard)
	s.mirror(ctx, studentID, title, message, linkStudentDashboard)
}

// NotifyAssignmentReminder reminds a student of an approaching due date
func (s *NotificationService) NotifyAssignmentReminder(ctx context.Context, studentID int64, storyTitle string, hoursLeft int) {
	var title, message string
	if hoursLeft <= 24 {
		title = "⚠️ Ödev Son Gün!"
		message = fmt.Sprintf("'%s' ödevi bugün bitiyor. Hemen tamamla!", storyTitle)
	} else {
		title = "📅 Ödev Hatırlatması"
		message = fmt.Sprintf("'%s' ödevinin bitmesine %d gün kaldı.", storyTitle, hoursLeft/24)
	}
	s.notify(ctx, studentID, models.NotificationReminder, title, message, linkStudentDashboard)
	s.mirror(ctx, studentID, title, message, linkStudentDashboard)
}

// NotifyAssignmentCompleted tells the teacher a student finished an assignment
func (s *NotificationService) NotifyAssignmentCompleted(ctx context.Context, teacherID int64, studentName, storyTitle string) {
	s.notify(ctx, teacherID, models.NotificationAssignment, "Ödev Tamamlandı",
		fmt.Sprintf("%s '%s' ödevini tamamladı.", studentName, storyTitle),
		linkTeacherDashboard)
}

var xpActionNames = map[progression.Action]string{
	progression.ActionStoryRead:        "Hikaye okuma",
	progression.ActionQuizPassed:       "Quiz başarısı",
	progression.ActionPerfectScore:     "Mükemmel skor",
	progression.ActionSpeedImprovement: "Hız artışı",
}

// NotifyXPEarned reports a significant XP award; amounts under 15 are not worth an inbox entry
func (s *NotificationService) NotifyXPEarned(ctx context.Context, userID int64, action progression.Action, xp int) {
	if xp < 15 {
		return
	}
	name, ok := xpActionNames[action]
	if !ok {
		name = string(action)
	}
	s.notify(ctx, userID, models.NotificationXP,
		fmt.Sprintf("⭐ +%d XP Kazandın!", xp),
		fmt.Sprintf("%s için %d XP kazandın!", name, xp),
		linkStudentDashboard)
}

// NotifyCommendation tells a student about a teacher's commendation
func (s *NotificationService) NotifyCommendation(ctx context.Context, studentID int64, teacherName string, typ models.CommendationType, title string) {
	s.notify(ctx, studentID, models.NotificationAchievement,
		fmt.Sprintf("🏆 %s Aldınız!", typ.DisplayName()),
		fmt.Sprintf("%s: %s", teacherName, title),
		linkStudentAchievements)
}

// NotifyAccountLinked tells a student their account was linked to a parent
func (s *NotificationService) NotifyAccountLinked(ctx context.Context, studentID int64, parentName string) {
	s.notify(ctx, studentID, models.NotificationAccount, "Veli Bağlantısı",
		fmt.Sprintf("Hesabınız %s adlı veliye bağlandı.", parentName),
		linkStudentDashboard)
}

// NotifyMessage tells a user a new direct message arrived
func (s *NotificationService) NotifyMessage(ctx context.Context, receiverID int64, senderName string) {
	s.notify(ctx, receiverID, models.NotificationMessage, "Yeni Mesaj",
		fmt.Sprintf("%s size bir mesaj gönderdi", senderName),
		linkMessages)
}

// AnnounceInput is a broadcast request
type AnnounceInput struct {
	Title   string `json:"title" validate:"notblank,max=200"`
	Message string `json:"message" validate:"notblank"`
	Target  string `json:"target" validate:"audience"`
}

// Announce broadcasts a message to an audience in one transaction and returns
// how many users got it
func (s *NotificationService) Announce(ctx context.Context, senderID int64, in AnnounceInput) (int, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Target = strings.ToLower(strings.TrimSpace(in.Target))
	if !validation.IsAudience(in.Target) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, in.Target)
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return 0, err
	}
	if sender == nil {
		return 0, ErrUserNotFound
	}
	if sender.Role != models.RoleAdmin && sender.Role != models.RoleTeacher {
		return 0, ErrForbidden
	}

	audience, err := audienceFor(in.Target, senderID)
	if err != nil {
		return 0, err
	}
	ids, err := s.users.ListIDsByAudience(ctx, audience)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tmpl := models.Notification{
		Type:    models.NotificationAnnouncement,
		Title:   "📢 " + in.Title,
		Message: fmt.Sprintf("%s\n\n— %s", in.Message, sender.Name),
	}
	// every chunk lands or none does
	var sent int
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		sent, err = s.notifications.WithTx(tx).CreateBulk(ctx, ids, tmpl)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("announcement sent",
		zap.Int64("sender_id", senderID),
		zap.String("target", in.Target),
		zap.Int("sent", sent),
	)
	return sent, nil
}

func audienceFor(target string, senderID int64) (repository.Audience, error) {
	switch target {
	case "all":
		return repository.Audience{ExcludeID: senderID}, nil
	case "students":
		return repository.Audience{Role: models.RoleStudent}, nil
	case "teachers":
		return repository.Audience{Role: models.RoleTeacher}, nil
	case "parents":
		return repository.Audience{Role: models.RoleParent}, nil
	}
	if grade, ok := strings.CutPrefix(target, "grade_"); ok {
		n, err := strconv.Atoi(grade)
		if err == nil && n > 0 {
			return repository.Audience{Role: models.RoleStudent, Grade: n}, nil
		}
	}
	return repository.Audience{}, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
}

// Inbox is one page of a user's notifications
type Inbox struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// List returns a page of the user's inbox. A non-positive limit means 20.
func (s *NotificationService) List(ctx context.Context, userID int64, opts repository.ListOptions) (*Inbox, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	list, err := s.notifications.List(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Notification{}
	}
	return &Inbox{Notifications: list, UnreadCount: unread}, nil
}

// UnreadCount counts the user's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	ok, err := s.notifications.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks the whole inbox read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

// Delete removes one of the user's notifications
func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	ok, err := s.notifications.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
