package main

import (
	"context"

	"feargreed-bot/internal/app"
	"feargreed-bot/internal/bot"
	"feargreed-bot/internal/config"
	"feargreed-bot/internal/job"
	"feargreed-bot/internal/repository"

	"go.opentelemetry.io/otel/trace"
)

// startTelegram runs the bot and the scheduled broadcast until ctx is done.
func startTelegram(
	ctx context.Context,
	tracer trace.Tracer,
	cfg *config.Config,
	stack *app.Stack,
	subscribers *repository.SubscriberRepository,
) error {
	token, err := resolveTokenFunc(cfg.TelegramBotToken, config.DefaultEnvFile)
	if err != nil {
		return err
	}

	var store bot.SubscriberStore
	var lister job.SubscriberLister
	if subscribers != nil {
		store = subscribers
		lister = subscribers
	}

	b, err := newBotFunc(token, stack.Reports, store)
	if err != nil {
		return err
	}

	reportJob, err := job.NewReportJob(tracer, stack.Reports, b, lister, cfg.TelegramChatID, cfg.ReportSchedule, cfg.ReportTimezone)
	if err != nil {
		return err
	}

	startBotFunc(b)
	startReportJobFunc(reportJob, ctx)
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
	return nil
}
