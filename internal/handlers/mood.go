package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bondbot-backend/internal/models"
	"bondbot-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// maxAudioBytes is the hard ceiling on an upload body
const maxAudioBytes = 1 << 20 // 1 MiB

// MoodHandler handles audio upload and health HTTP requests
type MoodHandler struct {
	moodService *services.MoodAnalysisService
}

// NewMoodHandler creates a new mood handler
func NewMoodHandler(moodService *services.MoodAnalysisService) *MoodHandler {
	return &MoodHandler{moodService: moodService}
}

// analyzeMoodRequest is the upload body sent by a device
type analyzeMoodRequest struct {
	Audio     string `json:"audio"`
	From      string `json:"from"`
	PairID    string `json:"pair_id"`
	Requester string `json:"requester"`
}

// AnalyzeMood handles POST /analyze-mood. The caller always gets a 200
// with a mood label unless a required-field or size violation occurred
// before processing began.
func (h *MoodHandler) AnalyzeMood(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, "Audio too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var req analyzeMoodRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Error().Err(err).Msg("Failed to parse audio upload")
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if req.Audio == "" || req.From == "" || req.PairID == "" || req.Requester == "" {
		respondError(w, "Missing fields: audio, from, pair_id, requester", http.StatusBadRequest)
		return
	}

	log.Info().
		Str("pair_id", req.PairID).
		Str("from", req.From).
		Str("requester", req.Requester).
		Int("bytes", len(body)).
		Msg("Audio upload received")

	mood := h.moodService.Analyze(r.Context(), services.AnalyzeRequest{
		Audio:     req.Audio,
		From:      models.DeviceFromTag(req.From),
		PairID:    req.PairID,
		Requester: models.DeviceFromTag(req.Requester),
	})

	respondJSON(w, map[string]string{"mood": mood, "status": "ok"}, http.StatusOK)
}

// Health handles GET /health
func (h *MoodHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok", "service": "bondbot-backend"}, http.StatusOK)
}
