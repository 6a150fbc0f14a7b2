// Package telegram delivers operator notifications through a Telegram bot.
package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
)

// SettingsFunc returns the current telegram settings document. Wired to the
// setting service so token changes apply without a restart.
type SettingsFunc func(ctx context.Context) (*dto.TelegramSettings, error)

// Notifier sends the per-kind notifications. Every method is a no-op when
// that kind is switched off or no bot credentials resolve.
type Notifier interface {
	NotifyBackup(ctx context.Context, caption, documentPath string) error
	NotifySecurity(ctx context.Context, text string) error
	NotifyXray(ctx context.Context, text string) error
}

type botNotifier struct {
	cfg      *config.Config
	settings SettingsFunc

	mu       sync.Mutex
	bot      *tgbotapi.BotAPI
	botToken string
}

func NewNotifier(cfg *config.Config, settings SettingsFunc) Notifier {
	return &botNotifier{cfg: cfg, settings: settings}
}

func (n *botNotifier) NotifyBackup(ctx context.Context, caption, documentPath string) error {
	st, token, chatID, ok, err := n.resolveTarget(ctx)
	if err != nil || !ok || !st.NotifyBackups {
		return err
	}
	if documentPath == "" {
		return n.sendMessage(token, chatID, caption)
	}
	return n.sendDocument(token, chatID, documentPath, caption)
}

func (n *botNotifier) NotifySecurity(ctx context.Context, text string) error {
	st, token, chatID, ok, err := n.resolveTarget(ctx)
	if err != nil || !ok || !st.NotifySecurity {
		return err
	}
	return n.sendMessage(token, chatID, text)
}

func (n *botNotifier) NotifyXray(ctx context.Context, text string) error {
	st, token, chatID, ok, err := n.resolveTarget(ctx)
	if err != nil || !ok || !st.NotifyXray {
		return err
	}
	return n.sendMessage(token, chatID, text)
}

// resolveTarget picks the bot credentials. A stored document that carries a
// token obeys its Enabled flag; without a stored token the .env credentials
// apply. ok is false when notifications are off.
func (n *botNotifier) resolveTarget(ctx context.Context) (*dto.TelegramSettings, string, int64, bool, error) {
	st, err := n.settings(ctx)
	if err != nil {
		return nil, "", 0, false, fmt.Errorf("failed to load telegram settings: %w", err)
	}
	if st.BotToken != "" && !st.Enabled {
		return st, "", 0, false, nil
	}

	token := st.BotToken
	chatID := st.ChatID
	if token == "" {
		token = n.cfg.Telegram.Token
		chatID = n.cfg.Telegram.ChatID
	}
	if token == "" || chatID == 0 {
		return st, "", 0, false, nil
	}
	return st, token, chatID, true, nil
}

// getBot caches the API client until the token changes.
func (n *botNotifier) getBot(token string) (*tgbotapi.BotAPI, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bot != nil && n.botToken == token {
		return n.bot, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	n.bot = bot
	n.botToken = token
	log.Info().Str("bot", bot.Self.UserName).Msg("Telegram bot connected")
	return bot, nil
}

func (n *botNotifier) sendMessage(token string, chatID int64, text string) error {
	bot, err := n.getBot(token)
	if err != nil {
		return err
	}
	_, err = bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (n *botNotifier) sendDocument(token string, chatID int64, path, caption string) error {
	bot, err := n.getBot(token)
	if err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	_, err = bot.Send(doc)
	return err
}
