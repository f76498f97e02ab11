package job

import (
	"context"
	"fmt"
	"time"

	"feargreed-bot/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Sender interface {
	SendText(chatID int64, text string) error
}

type ReportBuilder interface {
	BuildReport(ctx context.Context) string
}

type SubscriberLister interface {
	ListSubscribers(ctx context.Context) ([]domain.Subscriber, error)
	MarkDelivered(ctx context.Context, chatIDs []int64, at time.Time) error
}

// ReportJob broadcasts the combined report on a cron schedule to the
// configured chat and every subscriber.
type ReportJob struct {
	tracer        trace.Tracer
	reports       ReportBuilder
	sender        Sender
	subscribers   SubscriberLister
	defaultChatID int64
	cron          *cron.Cron
	now           func() time.Time
}

type Delivery struct {
	Sent   int
	Failed int
}

// NewReportJob validates schedule (standard 5-field cron) in timezone.
// subscribers may be nil.
func NewReportJob(
	tracer trace.Tracer,
	reports ReportBuilder,
	sender Sender,
	subscribers SubscriberLister,
	defaultChatID int64,
	schedule string,
	timezone string,
) (*ReportJob, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load report timezone %q: %w", timezone, err)
	}

	j := &ReportJob{
		tracer:        tracer,
		reports:       reports,
		sender:        sender,
		subscribers:   subscribers,
		defaultChatID: defaultChatID,
		cron:          cron.New(cron.WithLocation(loc)),
		now:           time.Now,
	}
	if _, err := j.cron.AddFunc(schedule, j.scheduledRun); err != nil {
		return nil, fmt.Errorf("parse report schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start blocks until ctx is cancelled, then waits for a running broadcast.
func (j *ReportJob) Start(ctx context.Context) {
	j.cron.Start()
	log.Info().Time("next", j.Next()).Msg("report job scheduled")

	<-ctx.Done()
	<-j.cron.Stop().Done()
	log.Info().Msg("report job stopped")
}

// Next is the zero time until Start is called.
func (j *ReportJob) Next() time.Time {
	entries := j.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// scheduledRun has no deadline of its own; each upstream request is bounded
// by its client timeout.
func (j *ReportJob) scheduledRun() {
	d := j.Run(context.Background())
	log.Info().Int("sent", d.Sent).Int("failed", d.Failed).Msg("scheduled report delivered")
}

// Run builds the report once and sends it to every recipient. A failed
// delivery is logged and does not stop the loop.
func (j *ReportJob) Run(ctx context.Context) Delivery {
	ctx, span := j.tracer.Start(ctx, "report-job.run")
	defer span.End()

	var d Delivery
	chats := j.recipients(ctx)
	if len(chats) == 0 {
		log.Warn().Msg("no report recipients configured")
		return d
	}

	text := j.reports.BuildReport(ctx)
	var delivered []int64
	for _, chatID := range chats {
		if err := j.sender.SendText(chatID, text); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("report delivery failed")
			d.Failed++
			continue
		}
		delivered = append(delivered, chatID)
		d.Sent++
	}
	if j.subscribers != nil && len(delivered) > 0 {
		if err := j.subscribers.MarkDelivered(ctx, delivered, j.now()); err != nil {
			log.Warn().Err(err).Msg("failed to record report delivery")
		}
	}
	span.SetAttributes(
		attribute.Int("sent", d.Sent),
		attribute.Int("failed", d.Failed),
	)
	return d
}

func (j *ReportJob) recipients(ctx context.Context) []int64 {
	seen := make(map[int64]bool)
	var chats []int64
	add := func(id int64) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		chats = append(chats, id)
	}

	add(j.defaultChatID)
	if j.subscribers == nil {
		return chats
	}
	subs, err := j.subscribers.ListSubscribers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list report subscribers")
		return chats
	}
	for _, s := range subs {
		add(s.ChatID)
	}
	return chats
}
