// Package telegram is the chat front-end: it receives photos and replies
// with the ripeness report.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "ripeness-detector/internal/application"
	"ripeness-detector/internal/domain/entity"
	applog "ripeness-detector/internal/log"
)

const (
	msgStart = `🍌 Hi! I check how ripe your bananas are.

📸 Send me a photo of bananas and I will count the unripe, ripe and overripe ones.

📋 Commands:
/check — start a new check
/help — how to use the bot
/cancel — cancel the current operation`

	msgHelp = `ℹ️ How to use the bot:

1️⃣ Send a photo of bananas (JPEG or PNG)
2️⃣ The bot analyzes the image
3️⃣ You get the counts per ripeness level and a short description

💡 Tips:
• Shoot in good light
• Keep all bananas in the frame
• Avoid blurry photos

📋 Commands:
/check — start a check
/cancel — cancel the operation`

	msgAwaitingPhoto  = "📸 Send a photo of bananas to analyze."
	msgCancelled      = "❌ Cancelled. Send /check to start a new check."
	msgSendPhoto      = "📸 Please send a photo of bananas."
	msgUnknownCommand = "❓ Unknown command. Use /help for help."
	msgProcessing     = "⏳ Analyzing image..."
	msgBusy           = "⏳ Still processing your previous photo, please wait."
	msgNotImage       = "⚠️ Only JPEG and PNG images are supported."
)

// downloadTimeout bounds fetching a photo from Telegram's file storage.
const downloadTimeout = 30 * time.Second

// botAPI is the part of tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram front-end.
type Bot struct {
	api      botAPI
	sessions *app.SessionService
	analysis *app.AnalysisService
	http     *http.Client
	fileURL  func(tgbotapi.File) string
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewBot authorizes against the Bot API.
func NewBot(token string, sessions *app.SessionService, analysis *app.AnalysisService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	b := newBot(api, sessions, analysis)
	b.fileURL = func(f tgbotapi.File) string { return f.Link(api.Token) }
	b.logger.Info("authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api botAPI, sessions *app.SessionService, analysis *app.AnalysisService) *Bot {
	return &Bot{
		api:      api,
		sessions: sessions,
		analysis: analysis,
		http:     &http.Client{Timeout: downloadTimeout},
		logger:   applog.With("component", "telegram"),
	}
}

// Run processes updates until ctx is cancelled, then waits for analyses in
// flight.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if fileID, name, ok := imageFile(msg); ok {
		b.handlePhoto(ctx, msg, fileID, name)
		return
	}

	if msg.Document != nil {
		b.sendMessage(msg.Chat.ID, msgNotImage)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		_, err := b.sessions.Cancel(ctx, userID, chatID)
		b.replyDialog(chatID, msgStart, err)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		_, err := b.sessions.BeginCheck(ctx, userID, chatID)
		b.replyDialog(chatID, msgAwaitingPhoto, err)

	case "cancel":
		_, err := b.sessions.Cancel(ctx, userID, chatID)
		b.replyDialog(chatID, msgCancelled, err)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// replyDialog answers a dialog command. While an analysis is running the
// session is not changed and the user is told to wait.
func (b *Bot) replyDialog(chatID int64, reply string, err error) {
	switch {
	case errors.Is(err, app.ErrSessionBusy):
		b.sendMessage(chatID, msgBusy)
	case err != nil:
		b.logger.Error("update session", "chat_id", chatID, "error", err)
	default:
		b.sendMessage(chatID, reply)
	}
}

// handlePhoto marks the session busy and analyzes the photo in the
// background. A second photo while busy is refused.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, fileID, name string) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	if _, err := b.sessions.StartProcessing(ctx, userID, chatID); err != nil {
		if errors.Is(err, app.ErrSessionBusy) {
			b.sendMessage(chatID, msgBusy)
			return
		}
		b.logger.Error("start processing", "user_id", userID, "error", err)
		return
	}

	b.sendMessage(chatID, msgProcessing)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.analyze(ctx, userID, chatID, fileID, name)
	}()
}

func (b *Bot) analyze(ctx context.Context, userID, chatID int64, fileID, name string) {
	defer func() {
		if err := b.sessions.Finish(context.WithoutCancel(ctx), userID); err != nil {
			b.logger.Error("finish session", "user_id", userID, "error", err)
		}
	}()

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("download photo", "user_id", userID, "error", err)
		b.sendMessage(chatID, formatError(entity.NewAnalysisError(entity.ErrTransport, "download", err)))
		return
	}

	out, err := b.analysis.Process(ctx, "", entity.Upload{
		Origin:   entity.OriginUpload,
		Filename: name,
		Data:     data,
	})
	if err != nil {
		b.sendMessage(chatID, formatError(err))
		return
	}

	b.sendMessage(chatID, formatReport(out.Report))
}

// downloadFile fetches a file from Telegram.
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.fileURL(file), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", "chat_id", chatID, "error", err)
	}
}

// imageFile returns the file to analyze: the largest photo size, or an
// image sent as a document.
func imageFile(msg *tgbotapi.Message) (fileID, name string, ok bool) {
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		return photo.FileID, "photo.jpg", true
	}
	if doc := msg.Document; doc != nil {
		switch strings.ToLower(doc.MimeType) {
		case entity.MIMEJPEG, entity.MIMEPNG:
			return doc.FileID, doc.FileName, true
		}
	}
	return "", "", false
}
