package entity

import (
	"time"

	"github.com/google/uuid"
)

// EditJob represents one document edit run for data transfer between layers.
type EditJob struct {
	ID            uuid.UUID  `json:"id"`
	Filename      string     `json:"filename"`
	FileSize      int64      `json:"file_size"`
	ContentHash   string     `json:"content_hash"`
	Instruction   string     `json:"instruction"`
	ModelName     *string    `json:"model_name,omitempty"`
	Pages         int        `json:"pages"`
	Fragments     int        `json:"fragments"`
	Characters    int        `json:"characters"`
	EditsProposed int        `json:"edits_proposed"`
	EditsApplied  int        `json:"edits_applied"`
	EditsMissed   int        `json:"edits_missed"`
	Status        string     `json:"status"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
