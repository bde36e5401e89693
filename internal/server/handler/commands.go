package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shiplane/shiplane/internal/scaffold"
)

// CommandHandler exposes registered command intents over HTTP. POSTing to
// /commands/{intent} with a flat JSON object of string parameters invokes
// the matching generator.
type CommandHandler struct {
	commands *scaffold.Registry
	logger   *slog.Logger
}

// NewCommandHandler creates a new command handler backed by the registry.
func NewCommandHandler(commands *scaffold.Registry, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		commands: commands,
		logger:   logger,
	}
}

type commandResponse struct {
	Intent string `json:"intent"`
	Output string `json:"output,omitempty"`
}

// Handle invokes the intent named in the URL.
func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request) {
	intent := chi.URLParam(r, "intent")

	params := scaffold.Params{}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Could not read request body", http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			h.logger.Debug("malformed command parameters", "intent", intent, "error", err)
			http.Error(w, "Parameters must be a flat JSON object of strings", http.StatusBadRequest)
			return
		}
	}

	out, err := h.commands.Invoke(r.Context(), intent, params)
	if err != nil {
		if errors.Is(err, scaffold.ErrUnknownIntent) {
			http.Error(w, "Unknown command intent", http.StatusNotFound)
			return
		}
		h.logger.Error("command intent failed", "intent", intent, "error", err)
		http.Error(w, "Command failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("command intent completed", "intent", intent)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(commandResponse{Intent: intent, Output: out}); err != nil {
		h.logger.Error("failed to write command response", "error", err)
	}
}
