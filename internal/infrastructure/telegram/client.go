package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/fastygo/planner/internal/config"
)

// ErrNotConfigured is returned by every send while no bot token is configured.
var ErrNotConfigured = errors.New("telegram: bot token not configured")

// ErrInvalidChat is returned for chat ids that are neither numeric nor @channel names.
var ErrInvalidChat = errors.New("telegram: invalid chat id")

// Client delivers HTML messages through the Telegram Bot API.
// The bot is authorized lazily so a Telegram outage at startup does not disable delivery.
type Client struct {
	token      string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

func New(cfg config.TelegramConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:      strings.TrimSpace(cfg.BotToken),
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Configured reports whether a bot token is present.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

// Send posts text to chatID. It never retries; the caller decides when to try again.
func (c *Client) Send(ctx context.Context, chatID string, text string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newMessage(chatID, text)
	if err != nil {
		return err
	}

	api, err := c.bot()
	if err != nil {
		return err
	}

	if _, err := api.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return fmt.Errorf("telegram api error %d: %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (c *Client) bot() (*tgbotapi.BotAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil {
		return c.api, nil
	}

	api, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, c.httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram authorize: %w", err)
	}
	c.logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))
	c.api = api
	return api, nil
}

func newMessage(chatID string, text string) (tgbotapi.MessageConfig, error) {
	chatID = strings.TrimSpace(chatID)
	var msg tgbotapi.MessageConfig
	switch {
	case strings.HasPrefix(chatID, "@") && len(chatID) > 1:
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	default:
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return msg, fmt.Errorf("%w: %q", ErrInvalidChat, chatID)
		}
		msg = tgbotapi.NewMessage(id, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	return msg, nil
}
