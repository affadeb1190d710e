package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"avvatracker/internal/config"
	"avvatracker/internal/model"
)

// Telegram posts events to one chat through the Bot API. Delivery is best
// effort: failures are logged and reported as false, never returned.
type Telegram struct {
	APIBase string
	Token   string
	ChatID  string
	SiteURL string
	HTTP    *http.Client
	Logger  *zap.Logger
}

func NewTelegram(cfg config.TelegramConfig, logger *zap.Logger) *Telegram {
	return &Telegram{
		APIBase: strings.TrimRight(cfg.APIBase, "/"),
		Token:   cfg.BotToken,
		ChatID:  cfg.ChatID,
		SiteURL: cfg.SiteURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Logger:  logger,
	}
}

func (t *Telegram) IsEnabled() bool {
	return t.Token != "" && t.ChatID != ""
}

func (t *Telegram) SendEvent(ctx context.Context, ev model.Event) bool {
	msg, ok := Format(ev, t.SiteURL)
	if !ok {
		return false
	}
	return t.Send(ctx, msg)
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers a pre-rendered HTML message.
func (t *Telegram) Send(ctx context.Context, text string) bool {
	if !t.IsEnabled() {
		t.Logger.Info("telegram disabled, message dropped", zap.String("text", text))
		return false
	}
	if err := t.sendMessage(ctx, text); err != nil {
		t.Logger.Warn("telegram send failed", zap.Error(err))
		return false
	}
	return true
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.HTTP.Do(req)
	if err != nil {
		// the URL carries the token
		return fmt.Errorf("sendMessage: %w", redact(err, t.Token))
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("sendMessage: status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("sendMessage: status %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "***"))
}
