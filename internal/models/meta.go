package models

import "time"

// DocumentMeta is a lightweight representation returned by list operations.
type DocumentMeta struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	RevisionID string    `json:"revision_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RunMeta summarises one stored run.
type RunMeta struct {
	RunID     string         `json:"run_id"`
	DocID     string         `json:"doc_id"`
	Mode      string         `json:"mode"`
	DryRun    bool           `json:"dry_run"`
	HasErrors bool           `json:"has_errors"`
	Counts    map[Status]int `json:"counts"`
	CreatedAt time.Time      `json:"created_at"`
}
