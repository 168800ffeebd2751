package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.diagnosis_events (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     session_id  TEXT NOT NULL,
//     step        TEXT NOT NULL,
//     answers     JSONB,
//     result      JSONB,
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );

type DiagnosisEvent struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	SessionID string            `gorm:"column:session_id;not null" json:"session_id"`
	Step      string            `gorm:"column:step;not null" json:"step"`
	Answers   datatypes.JSONMap `gorm:"column:answers;type:jsonb" json:"answers"`
	Result    datatypes.JSONMap `gorm:"column:result;type:jsonb" json:"result"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (DiagnosisEvent) TableName() string {
	return "diagnosis_events"
}

const (
	StepScore     = "score"
	StepQuestion  = "question"
	StepReconcile = "reconcile"
	StepRecommend = "recommend"
)
