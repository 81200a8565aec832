// Command main runs Gatherly's scheduled jobs as short-lived processes,
// invoked by an external scheduler:
//
//	cron sweep      availability notification aggregation sweep
//	cron reminders  weekly SMS planning reminders
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"gatherly/internal/cache"
	"gatherly/internal/config"
	"gatherly/internal/database"
	"gatherly/internal/middleware"
	"gatherly/internal/notifications"
	"gatherly/internal/repository"
	"gatherly/internal/service"
	"gatherly/internal/transport"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "Job deadline")
	flag.Parse()

	job := flag.Arg(0)
	if job != "sweep" && job != "reminders" {
		log.Fatalf("usage: cron [-timeout d] sweep|reminders")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cache.InitRedis(cfg.RedisURL)
	notifier := notifications.NewNotifier(cache.GetClient())

	var sms transport.SMSSender
	if twilio := transport.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, middleware.Logger); twilio != nil {
		sms = twilio
	} else {
		sms = transport.NewMockSMSSender(middleware.Logger)
	}
	var pusher transport.PushSender = transport.NewHTTPPusher(cfg.PushTimeout(), middleware.Logger)
	if cfg.Env == "development" || cfg.Env == "test" {
		pusher = transport.NewLogPusher(middleware.Logger)
	}

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	dispatcher := service.NewDispatcher(deviceRepo, pusher, sms, notifier)

	sweeper := service.NewSweepService(
		db, userRepo, friendRepo, dispatcher, sms,
		cfg.NotificationCooldown(), cfg.AppBaseURL,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	var processed int
	switch job {
	case "sweep":
		processed, err = sweeper.RunAggregationSweep(ctx)
	case "reminders":
		processed, err = sweeper.RunWeeklyReminders(ctx)
	}
	if err != nil {
		log.Fatalf("Job %s failed after %s: %v", job, time.Since(start).Round(time.Millisecond), err)
	}
	log.Printf("Job %s done: %d users processed in %s", job, processed, time.Since(start).Round(time.Millisecond))
}
