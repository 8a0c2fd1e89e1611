package model

import "time"

// Artifact is a transient output file, retrievable once.
type Artifact struct {
	ID          string    `json:"id"`
	LogicalName string    `json:"filename"`
	Format      string    `json:"format"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	Delivered   bool      `json:"delivered"`
}
