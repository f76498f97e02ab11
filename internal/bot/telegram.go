package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feargreed-bot/internal/domain"
	"feargreed-bot/internal/service"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

const helpText = `Бот индекса страха и жадности.

/fg - индекс страха и жадности для акций (CNN)
/cfg - индекс страха и жадности для крипты (alternative.me)
/prices - цены BTC и S&P 500
/report - полный отчёт
/subscribe - получать отчёт по расписанию
/unsubscribe - отписаться от рассылки`

// storeTimeout bounds subscriber database calls. Report commands carry no
// deadline of their own: every upstream request has its own timeout and the
// fallback chain must be allowed to reach its last source.
const storeTimeout = 10 * time.Second

// ReportSource is the slice of service.ReportService the bot needs.
type ReportSource interface {
	FetchStockIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchCryptoIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error)
	BuildReport(ctx context.Context) string
}

type SubscriberStore interface {
	Subscribe(ctx context.Context, chatID int64, username string) (bool, error)
	Unsubscribe(ctx context.Context, chatID int64) (bool, error)
}

type Bot struct {
	bot         *tele.Bot
	reports     ReportSource
	subscribers SubscriberStore
}

var newTeleBot = tele.NewBot

// New builds the bot and registers every command. subscribers may be nil, in
// which case /subscribe and /unsubscribe report that scheduling is off.
func New(token string, reports ReportSource, subscribers SubscriberStore) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	tb, err := newTeleBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := &Bot{bot: tb, reports: reports, subscribers: subscribers}
	b.register()
	return b, nil
}

func (b *Bot) register() {
	b.bot.Handle("/start", func(c tele.Context) error {
		return c.Send(helpText)
	})
	b.bot.Handle("/help", func(c tele.Context) error {
		return c.Send(helpText)
	})
	b.bot.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.bot.Handle("/fg", b.reply(b.stockReply))
	b.bot.Handle("/cfg", b.reply(b.cryptoReply))
	b.bot.Handle("/prices", b.reply(b.pricesReply))
	b.bot.Handle("/report", b.reply(b.reports.BuildReport))

	b.bot.Handle("/subscribe", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return c.Send(b.subscribeReply(ctx, c.Chat().ID, senderName(c)))
	})
	b.bot.Handle("/unsubscribe", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return c.Send(b.unsubscribeReply(ctx, c.Chat().ID))
	})
}

func (b *Bot) reply(build func(ctx context.Context) string) tele.HandlerFunc {
	return func(c tele.Context) error {
		_ = c.Notify(tele.Typing)
		return c.Send(build(commandContext()))
	}
}

func commandContext() context.Context {
	return context.Background()
}

// Start runs the long poller in the background.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Telegram bot started")
	go b.bot.Start()
}

func (b *Bot) Stop() {
	b.bot.Stop()
}

// SendText delivers a plain message to chatID.
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.bot.Send(tele.ChatID(chatID), text)
	return err
}

func (b *Bot) stockReply(ctx context.Context) string {
	r, err := b.reports.FetchStockIndex(ctx)
	if err != nil {
		return service.FormatSectionError(service.StockSectionTitle, err)
	}
	return service.FormatStockSection(r)
}

func (b *Bot) cryptoReply(ctx context.Context) string {
	r, err := b.reports.FetchCryptoIndex(ctx)
	if err != nil {
		return service.FormatSectionError(service.CryptoSectionTitle, err)
	}
	return service.FormatCryptoSection(r)
}

func (b *Bot) pricesReply(ctx context.Context) string {
	p, err := b.reports.FetchMarketPrices(ctx)
	if err != nil {
		return service.FormatSectionError(service.PricesSectionTitle, err)
	}
	return service.FormatPricesSection(p)
}

func (b *Bot) subscribeReply(ctx context.Context, chatID int64, username string) string {
	if b.subscribers == nil {
		return "Рассылка по расписанию отключена."
	}
	added, err := b.subscribers.Subscribe(ctx, chatID, username)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("subscribe failed")
		return "Не удалось оформить подписку, попробуйте позже."
	}
	if !added {
		return "Вы уже подписаны на отчёт."
	}
	return "Готово: отчёт будет приходить по расписанию."
}

func (b *Bot) unsubscribeReply(ctx context.Context, chatID int64) string {
	if b.subscribers == nil {
		return "Рассылка по расписанию отключена."
	}
	removed, err := b.subscribers.Unsubscribe(ctx, chatID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("unsubscribe failed")
		return "Не удалось отменить подписку, попробуйте позже."
	}
	if !removed {
		return "Вы не были подписаны."
	}
	return "Подписка отменена."
}

func senderName(c tele.Context) string {
	if u := c.Sender(); u != nil {
		return u.Username
	}
	return ""
}
