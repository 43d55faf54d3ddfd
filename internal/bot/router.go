// Package bot implements the operator command surface: a button-driven
// Telegram menu gated on a static allow-list.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hostguard/agent/internal/domain"
	"github.com/hostguard/agent/internal/metrics"
	"github.com/hostguard/agent/internal/telegram"
)

// Transport is the chat-side surface the router drives.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error
}

// UpdateSource supplies incoming updates, typically via long polling.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
}

// SnapshotProvider builds the data behind the status and security views.
type SnapshotProvider interface {
	Status(ctx context.Context) domain.StatusSnapshot
	Security(ctx context.Context) domain.SecuritySnapshot
}

// RestartControl is the two-phase restart surface.
type RestartControl interface {
	Request(initiator int64) (*domain.RestartRequest, error)
	Cancel()
	Confirm(ctx context.Context, initiator int64) (*domain.RestartResult, error)
}

// pollRetryDelay spaces retries after a failed getUpdates call.
const pollRetryDelay = 3 * time.Second

type Router struct {
	transport Transport
	source    UpdateSource
	reporter  SnapshotProvider
	restarts  RestartControl
	admins    map[int64]bool
	logger    *slog.Logger
}

func NewRouter(
	transport Transport,
	source UpdateSource,
	reporter SnapshotProvider,
	restarts RestartControl,
	adminIDs []int64,
	logger *slog.Logger,
) *Router {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &Router{
		transport: transport,
		source:    source,
		reporter:  reporter,
		restarts:  restarts,
		admins:    admins,
		logger:    logger,
	}
}

// Run long-polls for updates until the context is cancelled. Poll failures
// are logged and retried; update handling failures never stop the loop.
func (r *Router) Run(ctx context.Context) {
	var offset int64

	r.logger.Info("command router started", "operators", len(r.admins))

	for {
		if ctx.Err() != nil {
			r.logger.Info("command router stopped")
			return
		}

		updates, err := r.source.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.Error("poll updates failed", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			r.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate processes one update: a /start or /help command opens the
// gated menu; callback presses navigate it.
func (r *Router) HandleUpdate(ctx context.Context, upd telegram.Update) {
	switch {
	case upd.Message != nil:
		r.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	if msg.Text != "/start" && msg.Text != "/help" {
		return
	}

	if !r.admins[msg.From.ID] {
		r.denyMessage(ctx, msg)
		return
	}

	text, markup := welcomeView(msg.From.ID)
	if _, err := r.transport.SendMessage(ctx, msg.Chat.ID, text, markup); err != nil {
		r.logger.Error("send welcome failed", "chat", msg.Chat.ID, "err", err)
	}
}

func (r *Router) denyMessage(ctx context.Context, msg *telegram.Message) {
	metrics.UnauthorizedAccess.Inc()
	r.logger.Warn("unauthorized access attempt", "user", msg.From.ID, "command", msg.Text)
	if _, err := r.transport.SendMessage(ctx, msg.Chat.ID, deniedText, nil); err != nil {
		r.logger.Error("send denial failed", "chat", msg.Chat.ID, "err", err)
	}
}

func (r *Router) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if !r.admins[query.From.ID] {
		metrics.UnauthorizedAccess.Inc()
		r.logger.Warn("unauthorized access attempt", "user", query.From.ID, "action", query.Data)
		if err := r.transport.AnswerCallback(ctx, query.ID, "❌ Access denied", true); err != nil {
			r.logger.Error("answer callback failed", "err", err)
		}
		return
	}

	if err := r.transport.AnswerCallback(ctx, query.ID, "", false); err != nil {
		r.logger.Error("answer callback failed", "err", err)
	}

	if query.Message == nil {
		r.logger.Warn("callback without source message", "action", query.Data)
		return
	}

	// Any navigation away from the confirmation prompt discards the
	// pending restart request.
	if query.Data != actionRestartDocker && query.Data != actionConfirmRestart {
		r.restarts.Cancel()
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch query.Data {
	case actionStatus:
		text, markup := statusView(r.reporter.Status(ctx))
		r.edit(ctx, chatID, messageID, text, markup)

	case actionSecurity:
		text, markup := securityView(r.reporter.Security(ctx))
		r.edit(ctx, chatID, messageID, text, markup)

	case actionMainMenu:
		text, markup := mainMenuView()
		r.edit(ctx, chatID, messageID, text, markup)

	case actionHelp:
		text, markup := helpView()
		r.edit(ctx, chatID, messageID, text, markup)

	case actionRestartDocker:
		r.handleRestartRequest(ctx, query.From.ID, chatID, messageID)

	case actionConfirmRestart:
		r.handleRestartConfirm(ctx, query.From.ID, chatID, messageID)

	default:
		r.logger.Warn("unknown action", "action", query.Data, "user", query.From.ID)
	}
}

func (r *Router) handleRestartRequest(ctx context.Context, userID, chatID, messageID int64) {
	if _, err := r.restarts.Request(userID); err != nil {
		if errors.As(err, &domain.RestartInProgressError{}) {
			r.edit(ctx, chatID, messageID, "⏳ A restart is already in progress.", backKeyboard())
			return
		}
		r.logger.Error("restart request failed", "user", userID, "err", err)
		return
	}

	// Re-entrant: repeated presses simply redisplay the prompt.
	text, markup := confirmRestartView()
	r.edit(ctx, chatID, messageID, text, markup)
}

func (r *Router) handleRestartConfirm(ctx context.Context, userID, chatID, messageID int64) {
	r.edit(ctx, chatID, messageID, restartProgressView(), nil)

	result, err := r.restarts.Confirm(ctx, userID)
	switch {
	case errors.As(err, &domain.RestartInProgressError{}):
		r.edit(ctx, chatID, messageID, "⏳ A restart is already in progress.", backKeyboard())
		return
	case errors.As(err, &domain.NoPendingRestartError{}):
		r.edit(ctx, chatID, messageID, "Nothing to confirm.", backKeyboard())
		return
	case err != nil:
		r.logger.Error("restart failed to execute", "user", userID, "err", err)
		r.edit(ctx, chatID, messageID, "❌ Restart could not be executed: "+err.Error(), backKeyboard())
		return
	}

	text, markup := restartResultView(result)
	r.edit(ctx, chatID, messageID, text, markup)
}

func (r *Router) edit(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) {
	if err := r.transport.EditMessageText(ctx, chatID, messageID, text, markup); err != nil {
		r.logger.Error("edit message failed", "chat", chatID, "err", err)
	}
}
