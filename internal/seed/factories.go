// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gatherly/internal/models"
	"gatherly/internal/phone"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	ShouldClean bool
	// SkipBcrypt stores a plaintext marker password instead of hashing,
	// for fast local reseeds. Never usable for login.
	SkipBcrypt bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rnd  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, opts: opts, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	raw := fmt.Sprintf("555-%03d-%04d", f.rnd.Intn(1000), f.rnd.Intn(10000))
	normalized, err := phone.Normalize(raw)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:             gofakeit.Name(),
		Email:            gofakeit.Email(),
		Phone:            raw,
		PhoneNormalized:  normalized,
		RemindersEnabled: true,
		ReminderDays:     models.DefaultReminderDays,
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateFriendship persists a friend edge between two users along with the
// mutual watch subscriptions an accepted request would have created.
func (f *Factory) CreateFriendship(a, b *models.User) error {
	low, high := models.CanonicalPair(a.ID, b.ID)
	edge := &models.FriendEdge{UserLowID: low, UserHighID: high}
	if err := f.db.Create(edge).Error; err != nil {
		return err
	}
	subs := []models.WatchSubscription{
		{WatcherID: a.ID, FriendID: b.ID},
		{WatcherID: b.ID, FriendID: a.ID},
	}
	return f.db.Create(&subs).Error
}

// CreateAvailability persists an availability snapshot with a random spread
// of slots across the given week.
func (f *Factory) CreateAvailability(user *models.User, weekStart time.Time) (*models.AvailabilitySnapshot, error) {
	periods := []models.Period{models.PeriodMorning, models.PeriodAfternoon, models.PeriodEvening}
	var slots []models.Slot
	for day := range 7 {
		for _, period := range periods {
			if f.rnd.Intn(4) != 0 {
				continue
			}
			slots = append(slots, models.Slot{
				Date:   weekStart.AddDate(0, 0, day).Format(models.SlotDateLayout),
				Period: period,
			})
		}
	}
	if len(slots) == 0 {
		slots = append(slots, models.Slot{
			Date:   weekStart.Format(models.SlotDateLayout),
			Period: models.PeriodEvening,
		})
	}

	snapshot := &models.AvailabilitySnapshot{
		UserID:    user.ID,
		WeekStart: weekStart.Format(models.SlotDateLayout),
		Slots:     slots,
	}
	if err := f.db.Create(snapshot).Error; err != nil {
		return nil, err
	}
	return snapshot, nil
}

// CreateHangout persists a hangout created by the given user with the given
// invitees, all pending.
func (f *Factory) CreateHangout(creator *models.User, date time.Time, invitees ...*models.User) (*models.Hangout, error) {
	periods := []models.Period{models.PeriodMorning, models.PeriodAfternoon, models.PeriodEvening}
	hangout := &models.Hangout{
		CreatorID:   creator.ID,
		Date:        date.Format(models.SlotDateLayout),
		Period:      periods[f.rnd.Intn(len(periods))],
		Description: gofakeit.HipsterSentence(6),
		Status:      models.HangoutActive,
	}
	if err := f.db.Create(hangout).Error; err != nil {
		return nil, err
	}

	for _, invitee := range invitees {
		row := &models.HangoutInvitee{
			HangoutID: hangout.ID,
			UserID:    invitee.ID,
			Status:    models.InviteePending,
			Token:     uuid.NewString(),
		}
		if err := f.db.Create(row).Error; err != nil {
			return nil, err
		}
	}
	return hangout, nil
}

// CreateNotification persists an in-app notification row for the recipient.
func (f *Factory) CreateNotification(recipient, actor *models.User, message string) error {
	notif := &models.Notification{
		RecipientID: recipient.ID,
		ActorID:     &actor.ID,
		Kind:        models.NotificationGeneral,
		Message:     message,
	}
	return f.db.Create(notif).Error
}

func logStep(format string, args ...any) {
	log.Printf("✓ "+format, args...)
}
