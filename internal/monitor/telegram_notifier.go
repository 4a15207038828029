package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mzielinski/goalcast/internal/pkg/models"
)

// Min interval between two Telegram messages to the same chat to avoid
// 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// TelegramNotifier sends alerts for high-probability predictions through a
// buffered queue so the scan loop never blocks on Telegram.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time

	queue     chan *models.Prediction
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramNotifier creates the notifier and starts its sender goroutine.
// Returns nil when the bot cannot be reached; callers treat a nil notifier as
// alerts-disabled.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifier := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		queue:     make(chan *models.Prediction, 100),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	notifier.wg.Add(1)
	go notifier.messageSender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return notifier
}

// SendPredictionAlert queues an alert (non-blocking).
func (n *TelegramNotifier) SendPredictionAlert(ctx context.Context, p *models.Prediction) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}

	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- p:
		return nil
	default:
		slog.Warn("Telegram message queue is full, dropping alert",
			"home", p.HomeTeam, "away", p.AwayTeam)
		return fmt.Errorf("message queue is full")
	}
}

// QueueLen returns the current number of queued alerts (for logging).
func (n *TelegramNotifier) QueueLen() int {
	if n == nil || n.queue == nil {
		return 0
	}
	return len(n.queue)
}

// Stop drains the queue and waits for the sender goroutine.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining alerts before exit
			for {
				select {
				case p := <-n.queue:
					n.send(p)
				default:
					close(n.queueDone)
					return
				}
			}
		case p := <-n.queue:
			n.send(p)
		}
	}
}

func (n *TelegramNotifier) send(p *models.Prediction) {
	msg := tgbotapi.NewMessage(n.chatID, n.formatPredictionAlert(p))
	msg.ParseMode = tgbotapi.ModeMarkdown

	n.mu.Lock()
	elapsed := time.Since(n.lastSend)
	if elapsed < telegramSendInterval {
		waitTime := telegramSendInterval - elapsed
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
			slog.Warn("Telegram send cancelled during rate-limit wait", "home", p.HomeTeam, "away", p.AwayTeam)
			return
		case <-time.After(waitTime):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	_, err := n.bot.Send(msg)
	n.mu.Unlock()

	if err != nil {
		slog.Error("Telegram send failed", "home", p.HomeTeam, "away", p.AwayTeam, "error", err)
	} else {
		slog.Info("Telegram alert sent", "home", p.HomeTeam, "away", p.AwayTeam, "queue_length", len(n.queue))
	}
}

func (n *TelegramNotifier) formatPredictionAlert(p *models.Prediction) string {
	var builder strings.Builder
	builder.WriteString("*High Value Bet*\n\n")
	builder.WriteString(fmt.Sprintf("*%s vs %s*\n", escapeMarkdown(p.HomeTeam), escapeMarkdown(p.AwayTeam)))
	builder.WriteString(fmt.Sprintf("League: %s\n", escapeMarkdown(p.League)))
	builder.WriteString(fmt.Sprintf("Kick-off: %s\n\n", formatKickoff(p.KickoffUTC)))
	builder.WriteString(fmt.Sprintf("Over 2.5: *%.1f%%*\n", p.Over25Prob*100))
	builder.WriteString(fmt.Sprintf("BTTS: %.1f%%\n", p.BTTSProb*100))
	builder.WriteString(fmt.Sprintf("Expected goals: %.2f\n", p.ExpectedGoals))
	builder.WriteString(fmt.Sprintf("Confidence: %s\n", p.Over25Confidence))
	return builder.String()
}

func formatKickoff(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
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
