package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"bondbot-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// MoodClassifier maps an audio clip to free text expected to contain
// one of the mood labels. The collaborator is unreliable by contract:
// it may time out, error, or return off-label text.
type MoodClassifier interface {
	Classify(ctx context.Context, audioBase64 string) (string, error)
}

// AnalyzeRequest is one audio upload accepted from the HTTP boundary
type AnalyzeRequest struct {
	Audio     string
	From      models.Device
	PairID    string
	Requester models.Device
}

// MoodAnalysisService accepts an audio upload, invokes the external
// classifier, and routes the classified result back to the requester
// over the pair's reply channel.
type MoodAnalysisService struct {
	classifier MoodClassifier
	publisher  Publisher
	logbook    *InteractionLog
	archive    *AudioArchive // optional, nil when no bucket configured
}

// NewMoodAnalysisService creates a new mood analysis service
func NewMoodAnalysisService(classifier MoodClassifier, publisher Publisher, logbook *InteractionLog, archive *AudioArchive) *MoodAnalysisService {
	return &MoodAnalysisService{
		classifier: classifier,
		publisher:  publisher,
		logbook:    logbook,
		archive:    archive,
	}
}

// Analyze classifies the clip and returns the resolved mood label.
// The requester always receives exactly one MOOD_RESULT per request:
// classifier failure degrades the mood to neutral but never skips the
// publish, and a MOOD_ANALYSIS record is appended either way.
func (s *MoodAnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) string {
	if s.archive != nil {
		s.archive.Store(ctx, req.PairID, req.Audio)
	}

	mood := models.MoodNeutral
	text, err := s.classifier.Classify(ctx, req.Audio)
	if err != nil {
		log.Error().
			Err(err).
			Str("pair_id", req.PairID).
			Msg("Mood classification failed, defaulting to neutral")
	} else {
		mood = parseMoodLabel(text)
		log.Info().
			Str("pair_id", req.PairID).
			Str("raw", text).
			Str("mood", mood).
			Msg("Mood classified")
	}

	topic := models.ReplyTopic(req.PairID, req.Requester)
	result := models.MoodResult{
		Type:   string(models.KindMoodResult),
		Mood:   mood,
		From:   req.From,
		Target: req.Requester,
		PairID: req.PairID,
	}
	payload, _ := json.Marshal(result)
	if err := s.publisher.Publish(topic, payload); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Msg("Failed to publish mood result")
	} else {
		log.Info().
			Str("topic", topic).
			Str("mood", mood).
			Str("target", string(req.Requester)).
			Msg("Mood result published")
	}

	if err := s.logbook.Record(ctx, req.PairID, models.Interaction{
		Kind:         models.KindMoodAnalysis,
		FromDevice:   req.From,
		TargetDevice: req.Requester,
		Mood:         mood,
		Timestamp:    time.Now(),
	}); err != nil {
		log.Error().Err(err).Str("pair_id", req.PairID).Msg("Failed to record mood analysis")
	}

	return mood
}

// parseMoodLabel matches the classifier's free text against the closed
// label set: lower-case, trim, then substring containment with "happy"
// checked before "sad" and neutral as the default for anything else.
// The classifier is not contractually bound to return a single token.
func parseMoodLabel(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(t, models.MoodHappy):
		return models.MoodHappy
	case strings.Contains(t, models.MoodSad):
		return models.MoodSad
	default:
		return models.MoodNeutral
	}
}
