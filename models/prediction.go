package models

// Prediction is one scored observation. ObservationID is caller-assigned and
// unique; TrueClass stays null until a ground-truth label is reconciled.
type Prediction struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	ObservationID string  `gorm:"column:observation_id;uniqueIndex" json:"observation_id"`
	Observation   string  `gorm:"column:observation" json:"observation"`
	Prediction    bool    `gorm:"column:prediction" json:"prediction"`
	Proba         float64 `gorm:"column:proba" json:"proba"`
	TrueClass     *int    `gorm:"column:true_class" json:"true_class"`
}

func (Prediction) TableName() string { return "predictions" }
