package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/habitlog/internal/api"
	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/notifier"
	"github.com/julianstephens/habitlog/internal/scheduler"
	"github.com/julianstephens/habitlog/internal/utils"
)

type ServeCmd struct {
	Addr            string        `help:"Address to listen on." default:":3000" env:"HABITLOG_ADDR"`
	RateLimit       float64       `help:"Requests per second allowed per owner." default:"10" env:"HABITLOG_RATE_LIMIT"`
	Burst           int           `help:"Burst size of the per-owner rate limit." default:"20" env:"HABITLOG_RATE_BURST"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"10s"`
	ReminderWebhook string        `help:"URL that receives reminder payloads. Reminders are only logged when unset." env:"HABITLOG_REMINDER_WEBHOOK"`
	WebhookSecret   string        `help:"Shared secret sent with each reminder." env:"HABITLOG_WEBHOOK_SECRET"`
	NoReminders     bool          `help:"Disable the reminder job."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !c.NoReminders {
		sched, err := c.startReminders(runCtx, ctx)
		if err != nil {
			return err
		}
		if sched != nil {
			defer sched.Stop()
		}
	}

	srv := api.NewServer(ctx.Service, api.Config{
		RateLimitPerSec: c.RateLimit,
		RateLimitBurst:  c.Burst,
		ShutdownTimeout: c.ShutdownTimeout,
	})
	fmt.Printf("%s API listening on %s\n", constants.AppName, c.Addr)
	return srv.ListenAndServe(runCtx, c.Addr)
}

// startReminders schedules the reminder job from settings. It returns a nil
// scheduler when no reminder schedule is configured.
func (c *ServeCmd) startReminders(runCtx context.Context, ctx *cli.Context) (*scheduler.Scheduler, error) {
	settings, err := ctx.Store.GetSettings(runCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if settings.ReminderSpec == "" {
		logger.Info("reminders disabled", "reason", "no reminder schedule in settings")
		return nil, nil
	}

	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, err
	}

	notify := scheduler.LogNotifier
	if c.ReminderWebhook != "" {
		hook, err := notifier.New(c.ReminderWebhook, c.WebhookSecret)
		if err != nil {
			return nil, err
		}
		notify = hook.Remind
	}

	sched := scheduler.New(loc)
	id, err := sched.Schedule(settings.ReminderSpec, scheduler.ReminderJob(runCtx, ctx.Service, notify))
	if err != nil {
		return nil, err
	}
	sched.Start()
	logger.Info("reminders scheduled", "spec", settings.ReminderSpec, "next", sched.Next(id).Format(time.RFC3339))
	return sched, nil
}
