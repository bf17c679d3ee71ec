package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"search-prediction-api/services"

	"github.com/gin-gonic/gin"
)

const (
	// PredictionsChannel carries newly stored predictions to websocket
	// subscribers.
	PredictionsChannel = "searchapi:predictions"

	listCacheKey = "searchapi:list"
	listCacheTTL = 5 * time.Second
)

type PredictionHandler struct {
	store  *services.PredictionStore
	scorer *services.Scorer
	cache  *services.CacheService
}

func NewPredictionHandler(store *services.PredictionStore, scorer *services.Scorer, cache *services.CacheService) *PredictionHandler {
	return &PredictionHandler{store: store, scorer: scorer, cache: cache}
}

// ShouldSearch validates an observation, scores it, and records the
// prediction. A duplicate observation_id still reports the computed outcome,
// alongside the duplicate error, without touching the stored record.
func (h *PredictionHandler) ShouldSearch(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var obs map[string]any
	if err := json.Unmarshal(raw, &obs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON body"})
		return
	}

	if err := services.ValidateObservation(obs); err != nil {
		services.ValidationFailures.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	observationID := obs["observation_id"].(string)

	result, err := h.scorer.Score(obs)
	if err != nil {
		services.ScoringFailures.Inc()
		log.Printf("scoring failed for observation_id=%s: %v", observationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	services.ObservationsScored.Inc()

	err = h.store.Insert(c.Request.Context(), observationID, raw, result.Outcome, result.Proba)
	var dup *services.DuplicateIDError
	if errors.As(err, &dup) {
		services.DuplicateInserts.Inc()
		log.Printf("%s", dup.Error())
		c.JSON(http.StatusOK, gin.H{"outcome": result.Outcome, "error": dup.Error()})
		return
	}
	if err != nil {
		log.Printf("insert failed for observation_id=%s: %v", observationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database insert failed"})
		return
	}
	services.PredictionsStored.Inc()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.cache.Delete(ctx, listCacheKey)
		h.cache.Publish(ctx, PredictionsChannel, gin.H{
			"observation_id": observationID,
			"outcome":        result.Outcome,
			"proba":          result.Proba,
		})
	}()

	c.JSON(http.StatusOK, gin.H{"outcome": result.Outcome})
}

// SearchResult reconciles a ground-truth outcome against a stored prediction.
// Malformed requests are rejected with a specific reason rather than one
// generic message: bad JSON, missing observation_id, and missing or
// non-boolean/non-integer outcome are each named.
func (h *PredictionHandler) SearchResult(c *gin.Context) {
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON body"})
		return
	}

	rawID, ok := req["observation_id"]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "observation_id is required"})
		return
	}
	observationID, ok := rawID.(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "observation_id must be a string"})
		return
	}

	rawOutcome, ok := req["outcome"]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "outcome is required"})
		return
	}
	outcome, ok := parseOutcome(rawOutcome)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "outcome must be a boolean or integer"})
		return
	}

	p, err := h.store.Correct(c.Request.Context(), observationID, outcome)
	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}
	if err != nil {
		log.Printf("reconciliation failed for observation_id=%s: %v", observationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database update failed"})
		return
	}
	services.Reconciliations.Inc()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.cache.Delete(ctx, listCacheKey)
	}()

	c.JSON(http.StatusOK, gin.H{
		"observation_id":    p.ObservationID,
		"outcome":           *p.TrueClass,
		"predicted_outcome": p.Prediction,
	})
}

// parseOutcome normalizes a JSON boolean or integer-valued number to 0/1.
func parseOutcome(v any) (int, bool) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// ListDBContents dumps every stored prediction for inspection.
func (h *PredictionHandler) ListDBContents(c *gin.Context) {
	var cached []json.RawMessage
	if err := h.cache.Get(c.Request.Context(), listCacheKey, &cached); err == nil && cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	rows, err := h.store.List(c.Request.Context())
	if err != nil {
		log.Printf("list predictions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.cache.Set(ctx, listCacheKey, rows, listCacheTTL)
	}()

	c.JSON(http.StatusOK, rows)
}
