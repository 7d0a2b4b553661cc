// Package notify sends operational alerts to Telegram: failed bookings and
// conversions that lost every selection. Sending is asynchronous so a slow
// Telegram API never delays an HTTP response.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

type messageType int

const (
	messageTypeConversion messageType = iota
	messageTypeBooking
	messageTypeTest
)

type queuedMessage struct {
	msgType  messageType
	source   string
	target   string
	code     string
	detail   string
	failed   int
	total    int
	testText string
}

// TelegramNotifier sends Telegram alerts for failed conversions and
// bookings. A nil notifier is valid and drops everything.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time

	queue     chan queuedMessage
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramNotifier creates a notifier, or nil when the token is empty or
// the bot cannot authenticate.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	if token == "" {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	// Test bot connection
	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifier := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		queue:     make(chan queuedMessage, 100),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	notifier.wg.Add(1)
	go notifier.messageSender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return notifier
}

// messageSender runs in background and sends queued messages with proper intervals
func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case msg := <-n.queue:
					n.sendQueuedMessage(msg)
				default:
					close(n.queueDone)
					return
				}
			}
		case msg := <-n.queue:
			n.sendQueuedMessage(msg)
		}
	}
}

func (n *TelegramNotifier) sendQueuedMessage(msg queuedMessage) {
	var text string
	switch msg.msgType {
	case messageTypeConversion:
		text = formatConversionAlert(msg)
	case messageTypeBooking:
		text = formatBookingAlert(msg)
	case messageTypeTest:
		text = msg.testText
	default:
		slog.Error("Unknown message type", "type", msg.msgType)
		return
	}

	tgMsg := tgbotapi.NewMessage(n.chatID, text)
	tgMsg.ParseMode = tgbotapi.ModeMarkdown

	// Wait for proper interval
	n.mu.Lock()
	elapsed := time.Since(n.lastSend)
	if elapsed < telegramSendInterval {
		waitTime := telegramSendInterval - elapsed
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
			slog.Warn("Telegram send: cancelled during wait", "type", msg.msgType)
			return
		case <-time.After(waitTime):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	_, err := n.bot.Send(tgMsg)
	n.mu.Unlock()

	if err != nil {
		slog.Error("Telegram send: failed", "error", err, "type", msg.msgType)
	} else {
		slog.Debug("Telegram send: success", "type", msg.msgType, "queue_length", len(n.queue))
	}
}

// Stop stops the notifier and waits for all queued messages to be sent
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

func (n *TelegramNotifier) enqueue(ctx context.Context, msg queuedMessage) error {
	if n == nil || n.bot == nil {
		return nil
	}
	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- msg:
		return nil
	default:
		// Queue is full, log warning but don't block
		slog.Warn("Telegram message queue is full, dropping message", "type", msg.msgType)
		return fmt.Errorf("message queue is full")
	}
}

// ConversionFailed queues an alert for a conversion that produced no
// bookable selections (non-blocking).
func (n *TelegramNotifier) ConversionFailed(ctx context.Context, source, target, code string, failed, total int, detail string) error {
	return n.enqueue(ctx, queuedMessage{
		msgType: messageTypeConversion,
		source:  source,
		target:  target,
		code:    code,
		detail:  detail,
		failed:  failed,
		total:   total,
	})
}

// BookingFailed queues an alert for a booking rejected by the target
// provider (non-blocking).
func (n *TelegramNotifier) BookingFailed(ctx context.Context, target, code, detail string) error {
	return n.enqueue(ctx, queuedMessage{
		msgType: messageTypeBooking,
		target:  target,
		code:    code,
		detail:  detail,
	})
}

// SendTestAlert queues a test alert message (non-blocking)
func (n *TelegramNotifier) SendTestAlert(ctx context.Context, message string) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	text := fmt.Sprintf("🧪 *Test Alert*\n\n%s\n\n_Time: %s_", message, time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	return n.enqueue(ctx, queuedMessage{msgType: messageTypeTest, testText: text})
}

func formatConversionAlert(msg queuedMessage) string {
	var builder strings.Builder
	builder.WriteString("🚨 *Conversion Failed*\n\n")
	builder.WriteString(fmt.Sprintf("`%s` → `%s`\n", escapeMarkdown(msg.source), escapeMarkdown(msg.target)))
	builder.WriteString(fmt.Sprintf("Code: `%s`\n", escapeMarkdown(msg.code)))
	builder.WriteString(fmt.Sprintf("📉 Lost %d of %d selections\n", msg.failed, msg.total))
	if msg.detail != "" {
		builder.WriteString(fmt.Sprintf("_%s_\n", escapeMarkdown(msg.detail)))
	}
	return builder.String()
}

func formatBookingAlert(msg queuedMessage) string {
	var builder strings.Builder
	builder.WriteString("🚨 *Booking Failed*\n\n")
	builder.WriteString(fmt.Sprintf("Target: `%s`\n", escapeMarkdown(msg.target)))
	builder.WriteString(fmt.Sprintf("Code: `%s`\n", escapeMarkdown(msg.code)))
	if msg.detail != "" {
		builder.WriteString(fmt.Sprintf("_%s_\n", escapeMarkdown(msg.detail)))
	}
	return builder.String()
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
