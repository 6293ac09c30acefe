// Package notify forwards order events to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"orderdesk/internal/events"
)

// TelegramSender is the part of tgbotapi.BotAPI the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ErrQueueFull is returned by Handle when the delivery backlog is full and the event is dropped.
var ErrQueueFull = errors.New("notification queue full")

const defaultQueueSize = 256

// Notifier posts one message per order event to a fixed chat.
// Handle only queues; Run delivers from the queue at the chat's rate.
type Notifier struct {
	sender  TelegramSender
	chatID  int64
	limiter *rate.Limiter
	loc     *time.Location
	timeout time.Duration
	queue   chan events.Event
	logger  zerolog.Logger
}

// NewNotifier creates a notifier. Telegram allows roughly one message per second per chat.
func NewNotifier(sender TelegramSender, chatID int64, loc *time.Location, logger zerolog.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		loc:     loc,
		timeout: 10 * time.Second,
		queue:   make(chan events.Event, defaultQueueSize),
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// Subscribe registers the notifier on the order events of bus.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.OrderCreated, n.Handle)
	bus.Subscribe(events.OrderStatusChanged, n.Handle)
}

// Handle validates ev and queues it for delivery without blocking.
func (n *Notifier) Handle(ev events.Event) error {
	var p events.OrderPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s payload: %w", ev.Type, err)
	}
	select {
	case n.queue <- ev:
		return nil
	default:
		n.logger.Warn().Int64("order_id", ev.OrderID).Str("event", ev.Type).Msg("notification dropped, queue full")
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is done. Events still queued at that point are discarded.
func (n *Notifier) Run(ctx context.Context) {
	n.logger.Info().Int64("chat_id", n.chatID).Msg("notifier started")
	for {
		select {
		case <-ctx.Done():
			n.logger.Info().Int("pending", len(n.queue)).Msg("notifier stopped")
			return
		case ev := <-n.queue:
			if err := n.deliver(ctx, ev); err != nil && ctx.Err() == nil {
				n.logger.Warn().Err(err).Int64("order_id", ev.OrderID).Str("event", ev.Type).Msg("notification not delivered")
			}
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, ev events.Event) error {
	var p events.OrderPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s payload: %w", ev.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	msg := tgbotapi.NewMessage(n.chatID, n.format(ev, p))
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("order_id", ev.OrderID).Str("event", ev.Type).Msg("telegram send failed")
		return fmt.Errorf("send to %d: %w", n.chatID, err)
	}
	n.logger.Debug().Int64("order_id", ev.OrderID).Str("event", ev.Type).Msg("notification sent")
	return nil
}

func (n *Notifier) format(ev events.Event, p events.OrderPayload) string {
	when := p.ReservedFor.In(n.loc).Format("02.01.2006 15:04")
	switch ev.Type {
	case events.OrderCreated:
		return fmt.Sprintf("New order %s at %s for %s, total %d.%02d",
			p.Reference, p.RestaurantName, when, p.TotalPriceCents/100, p.TotalPriceCents%100)
	default:
		return fmt.Sprintf("Order %s at %s (%s) is now %s", p.Reference, p.RestaurantName, when, p.State)
	}
}
