package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"tank-arena/internal/entity"
	"tank-arena/internal/game"

	"go.uber.org/zap"
)

// maxBodyBytes bounds control request bodies.
const maxBodyBytes = 4 << 10

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	writeJSON(w, map[string]any{
		"status":  "ok",
		"session": snap.SessionID,
		"tick":    snap.Tick,
	})
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleGetHUD(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.HUD())
}

func (h *routerHandlers) handleGetClasses(w http.ResponseWriter, r *http.Request) {
	classes := entity.AllClasses()
	out := make([]entity.ClassConfig, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.Config())
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var in game.Input
	if err := decodeBody(r, &in); err != nil {
		writeError(w, "invalid input", http.StatusBadRequest)
		return
	}
	if math.IsNaN(in.LookDelta) || math.IsInf(in.LookDelta, 0) {
		writeError(w, "lookDelta must be finite", http.StatusBadRequest)
		return
	}
	if err := h.engine.Submit(game.InputCommand(in)); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func (h *routerHandlers) handlePause(w http.ResponseWriter, r *http.Request) {
	h.engine.Pause()
	h.logger.Info("session paused via API", zap.String("ip", GetClientIP(r)))
	writeJSON(w, h.engine.HUD())
}

func (h *routerHandlers) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Resume(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, h.engine.HUD())
}

func (h *routerHandlers) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Class string `json:"class"`
	}
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	class, err := entity.ParseVehicleClass(req.Class)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.engine.Restart(class); err != nil {
		writeSessionError(w, err)
		return
	}
	h.logger.Info("session restarted via API", zap.Stringer("class", class), zap.String("ip", GetClientIP(r)))
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleGetDebug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Debug())
}

// handleSetDebug merges the posted flags over the current ones, so a body
// of {"immortal":true} leaves the other flags untouched.
func (h *routerHandlers) handleSetDebug(w http.ResponseWriter, r *http.Request) {
	d := h.engine.Debug()
	if err := decodeBody(r, &d); err != nil {
		writeError(w, "invalid debug flags", http.StatusBadRequest)
		return
	}
	h.engine.SetDebug(d)
	writeJSON(w, d)
}

func (h *routerHandlers) handleMinimap(w http.ResponseWriter, r *http.Request) {
	size := DefaultMinimapSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < MinMinimapSize || n > MaxMinimapSize {
			writeError(w, "size out of range", http.StatusBadRequest)
			return
		}
		size = n
	}

	img := RenderMinimap(h.engine.Arena(), h.engine.Snapshot(), size)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := img.EncodePNG(w); err != nil {
		h.logger.Warn("minimap encode failed", zap.Error(err))
	}
}

// Helper functions

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeSessionError maps session errors onto HTTP status codes.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrQueueFull):
		w.Header().Set("Retry-After", "1")
		writeError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, game.ErrSessionOver), errors.Is(err, game.ErrPaused):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrInvalidClass):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}
