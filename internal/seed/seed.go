package seed

import (
	"fmt"
	"log"
	"time"

	"gatherly/internal/models"

	"gorm.io/gorm"
)

// Seed populates the database with a demo social mesh: users, friendships,
// availability for the coming week and a few hangouts.
func Seed(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 12
	}
	log.Printf("🌱 Seeding database with %d users...", opts.NumUsers)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	logStep("%d users created", len(users))

	// Connect each user to a handful of others.
	edges := 0
	for i, user := range users {
		for j := i + 1; j < len(users); j++ {
			if f.rnd.Intn(3) != 0 {
				continue
			}
			if err := f.CreateFriendship(user, users[j]); err != nil {
				return fmt.Errorf("failed to create friendship: %w", err)
			}
			edges++
		}
	}
	logStep("%d friendships created", edges)

	weekStart := upcomingMonday(time.Now())
	shared := 0
	for _, user := range users {
		if f.rnd.Intn(4) == 0 {
			continue
		}
		if _, err := f.CreateAvailability(user, weekStart); err != nil {
			return fmt.Errorf("failed to create availability: %w", err)
		}
		shared++
	}
	logStep("%d users shared availability for week of %s", shared, weekStart.Format(models.SlotDateLayout))

	hangouts := 0
	for _, creator := range users {
		if f.rnd.Intn(4) != 0 {
			continue
		}
		friends, err := friendsOf(db, creator.ID)
		if err != nil {
			return err
		}
		if len(friends) == 0 {
			continue
		}
		date := weekStart.AddDate(0, 0, f.rnd.Intn(7))
		if _, err := f.CreateHangout(creator, date, friends[:min(2, len(friends))]...); err != nil {
			return fmt.Errorf("failed to create hangout: %w", err)
		}
		hangouts++
	}
	logStep("%d hangouts created", hangouts)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tables := []any{
		&models.Notification{},
		&models.HangoutMessage{},
		&models.HangoutInvitee{},
		&models.Hangout{},
		&models.AvailabilitySnapshot{},
		&models.WatchSubscription{},
		&models.FriendEdge{},
		&models.FriendRequest{},
		&models.PushDevice{},
		&models.Contact{},
		&models.User{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func friendsOf(db *gorm.DB, userID uint) ([]*models.User, error) {
	var users []*models.User
	err := db.
		Joins("JOIN friend_edges ON (friend_edges.user_low_id = ? AND friend_edges.user_high_id = users.id) OR (friend_edges.user_high_id = ? AND friend_edges.user_low_id = users.id)", userID, userID).
		Find(&users).Error
	return users, err
}

// upcomingMonday returns the next Monday at midnight, or today if it is Monday.
func upcomingMonday(now time.Time) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
