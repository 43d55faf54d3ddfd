// Package telegram is a minimal Bot API client covering long polling,
// message delivery and inline-keyboard editing.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// pollTimeout is the long-poll wait passed to getUpdates. The HTTP
	// client timeout must stay above it.
	pollTimeout = 30 * time.Second
)

type Client struct {
	token   string
	baseURL string
	http    *retryablehttp.Client
	logger  *slog.Logger
}

// NewClient creates a Bot API client. An empty baseURL selects the public
// API endpoint; tests point it at a local server.
func NewClient(token, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = 2
	httpClient.HTTPClient.Timeout = pollTimeout + 20*time.Second

	return &Client{
		token:   token,
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// GetUpdates long-polls for new updates past the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	body := map[string]any{
		"offset":          offset,
		"timeout":         int(pollTimeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}

	raw, err := c.call(ctx, "getUpdates", body)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// SendMessage delivers text to a chat, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		body["reply_markup"] = markup
	}

	raw, err := c.call(ctx, "sendMessage", body)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// EditMessageText replaces the text and keyboard of an existing message.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	body := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if markup != nil {
		body["reply_markup"] = markup
	}

	_, err := c.call(ctx, "editMessageText", body)
	return err
}

// AnswerCallback acknowledges a callback query so the client stops showing
// a progress indicator.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error {
	body := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		body["text"] = text
		body["show_alert"] = showAlert
	}

	_, err := c.call(ctx, "answerCallbackQuery", body)
	return err
}

// Notify implements the alert dispatcher's per-recipient delivery.
func (c *Client) Notify(ctx context.Context, recipient int64, text string) error {
	_, err := c.SendMessage(ctx, recipient, text, nil)
	return err
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := retryablehttp.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", method, err)
	}

	var api apiResponse
	if err := json.Unmarshal(data, &api); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !api.OK {
		return nil, fmt.Errorf("%s: api error: %s", method, api.Description)
	}
	return api.Result, nil
}
