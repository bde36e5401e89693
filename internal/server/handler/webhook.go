// Package handler provides HTTP handlers for the Shiplane application.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/core"
)

// WebhookHandler processes incoming webhooks from GitHub.
type WebhookHandler struct {
	cfg        *config.Config
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler with the given configuration and dispatcher.
func NewWebhookHandler(cfg *config.Config, dispatcher core.JobDispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes GitHub webhook requests.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, []byte(h.cfg.GitHub.WebhookSecret))
	if err != nil {
		h.logger.Error("invalid webhook payload signature", "error", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("could not parse webhook", "error", err)
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}

	switch e := event.(type) {
	case *github.PushEvent:
		h.handlePush(r.Context(), w, e)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", github.WebHookType(r))
		_, _ = fmt.Fprint(w, "Event type not handled")
	}
}

// handlePush processes push events from GitHub.
func (h *WebhookHandler) handlePush(ctx context.Context, w http.ResponseWriter, event *github.PushEvent) {
	push, err := core.EventFromPush(event)
	if err != nil {
		h.logger.Debug("ignoring push", "reason", err.Error(), "repo", event.GetRepo().GetFullName())
		_, _ = fmt.Fprint(w, "Push ignored")
		return
	}

	if err := h.dispatcher.Dispatch(ctx, push); err != nil {
		h.logger.Error("failed to dispatch delivery job", "error", err, "repo", push.RepoFullName)
		http.Error(w, "Failed to start delivery job", http.StatusInternalServerError)
		return
	}

	h.logger.Info("delivery job dispatched successfully", "repo", push.RepoFullName, "sha", push.ShortSHA())
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprint(w, "Delivery job accepted")
}
