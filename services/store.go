package services

import (
	"context"
	"errors"
	"fmt"

	"search-prediction-api/models"

	"gorm.io/gorm"
)

// DuplicateIDError is returned by Insert when a prediction with the same
// observation_id already exists. The original record is left untouched.
type DuplicateIDError struct {
	ObservationID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("Observation ID: %q already exists", e.ObservationID)
}

// NotFoundError is returned by Correct when no prediction exists for the
// observation_id.
type NotFoundError struct {
	ObservationID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Observation ID: %q does not exist", e.ObservationID)
}

// PredictionStore persists predictions. Uniqueness of observation_id is
// enforced by the database's unique index, so concurrent inserts of the same
// id cannot race past each other.
type PredictionStore struct {
	db *gorm.DB
}

func NewPredictionStore(db *gorm.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

func (s *PredictionStore) Migrate() error {
	return s.db.AutoMigrate(&models.Prediction{})
}

// Insert stores a new prediction. The raw observation payload is kept
// verbatim for audit. A duplicate observation_id yields DuplicateIDError and
// the statement's transaction is rolled back, leaving the session clean.
func (s *PredictionStore) Insert(ctx context.Context, observationID string, rawObservation []byte, outcome bool, proba float64) error {
	p := models.Prediction{
		ObservationID: observationID,
		Observation:   string(rawObservation),
		Prediction:    outcome,
		Proba:         proba,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &DuplicateIDError{ObservationID: observationID}
		}
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Correct sets the ground-truth outcome on an existing prediction and returns
// the updated record. Re-correcting overwrites the previous value; concurrent
// corrections are last-writer-wins.
func (s *PredictionStore) Correct(ctx context.Context, observationID string, observedOutcome int) (*models.Prediction, error) {
	var p models.Prediction
	err := s.db.WithContext(ctx).Where("observation_id = ?", observationID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{ObservationID: observationID}
		}
		return nil, fmt.Errorf("lookup prediction: %w", err)
	}

	p.TrueClass = &observedOutcome
	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, fmt.Errorf("update prediction: %w", err)
	}
	return &p, nil
}

// List returns every stored prediction in insertion order.
func (s *PredictionStore) List(ctx context.Context) ([]models.Prediction, error) {
	rows := make([]models.Prediction, 0)
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return rows, nil
}
