// Package substructure defines the request and response structures of the
// substructure search API. They are shared by the HTTP handlers, the gRPC
// service, the screening worker and the CLI, and carry no behaviour.
package substructure

import (
	"encoding/json"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Search options
// ─────────────────────────────────────────────────────────────────────────────

// SearchOptions is the wire form of the engine options. Atom index lists are
// zero-based target atom indices.
type SearchOptions struct {
	Selected              []int `json:"selected,omitempty" validate:"omitempty,dive,min=0"`
	Required              []int `json:"required,omitempty" validate:"omitempty,dive,min=0"`
	Excluded              []int `json:"excluded,omitempty" validate:"omitempty,dive,min=0"`
	FirstOnly             bool  `json:"first_only,omitempty"`
	IgnoreStereochemistry bool  `json:"ignore_stereochemistry,omitempty"`
	ReturnMaps            bool  `json:"return_maps,omitempty"`
	AromaticStrict        bool  `json:"aromatic_strict,omitempty"`
	IncludeHydrogens      bool  `json:"include_hydrogens,omitempty"`
	// RingDataMax of 0 selects the server default.
	RingDataMax int `json:"ring_data_max,omitempty" validate:"omitempty,min=3,max=16"`
}

// Target names the molecule to search: an inline V2000 molfile or the id of
// a stored library entry.
type Target struct {
	Molfile    string `json:"molfile,omitempty" validate:"required_without=MoleculeID,max=4194304"`
	MoleculeID string `json:"molecule_id,omitempty" validate:"omitempty,uuid"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Single-target operations
// ─────────────────────────────────────────────────────────────────────────────

// MatchRequest searches one target. Pattern is a JSON pattern document.
type MatchRequest struct {
	Pattern json.RawMessage `json:"pattern" validate:"required"`
	Target  Target          `json:"target"`
	Options SearchOptions   `json:"options"`
}

// MatchResponse reports the matches of one search. Sets holds distinct
// matched atom sets; Maps, when requested, holds one pattern-to-target
// mapping per match.
type MatchResponse struct {
	SearchID   string  `json:"search_id"`
	Matched    bool    `json:"matched"`
	Count      int     `json:"count"`
	Sets       [][]int `json:"sets,omitempty"`
	Maps       [][]int `json:"maps,omitempty"`
	Union      []int   `json:"union,omitempty"`
	AtomCount  int     `json:"atom_count"`
	Cached     bool    `json:"cached"`
	DurationMS int64   `json:"duration_ms"`
}

// RingsRequest asks for ring membership per ring size.
type RingsRequest struct {
	Target  Target `json:"target"`
	MaxSize int    `json:"max_size,omitempty" validate:"omitempty,min=3,max=16"`
}

// RingsResponse maps a ring size to the atoms lying on a ring of exactly
// that size. Sizes above the atom count are absent.
type RingsResponse struct {
	AtomCount int           `json:"atom_count"`
	MaxSize   int           `json:"max_size"`
	Members   map[int][]int `json:"members"`
}

// AromaticRequest asks for the aromatic atoms of a target.
type AromaticRequest struct {
	Target Target `json:"target"`
	Strict bool   `json:"strict,omitempty"`
}

// AromaticResponse lists aromatic atoms overall and by ring size.
type AromaticResponse struct {
	AtomCount int   `json:"atom_count"`
	Strict    bool  `json:"strict"`
	Aromatic  []int `json:"aromatic"`
	Aromatic5 []int `json:"aromatic5,omitempty"`
	Aromatic6 []int `json:"aromatic6,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Libraries
// ─────────────────────────────────────────────────────────────────────────────

// CreateLibraryRequest creates a named target library.
type CreateLibraryRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description,omitempty" validate:"max=1024"`
}

// LibraryResponse describes a library.
type LibraryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Molecules   int64     `json:"molecules"`
	CreatedAt   time.Time `json:"created_at"`
}

// AddMoleculeRequest stores one molfile in a library.
type AddMoleculeRequest struct {
	LibraryID string `json:"library_id" validate:"required,uuid"`
	Name      string `json:"name,omitempty" validate:"max=256"`
	Molfile   string `json:"molfile" validate:"required,max=4194304"`
}

// MoleculeResponse describes a stored library entry.
type MoleculeResponse struct {
	ID          string         `json:"id"`
	LibraryID   string         `json:"library_id"`
	Name        string         `json:"name"`
	Formula     string         `json:"formula"`
	AtomCount   int            `json:"atom_count"`
	Composition map[string]int `json:"composition"`
	Fingerprint string         `json:"fingerprint"`
	CreatedAt   time.Time      `json:"created_at"`
	Molfile     string         `json:"molfile,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Library screening
// ─────────────────────────────────────────────────────────────────────────────

// ScreenRequest searches every entry of a library. Offset and Limit page
// through the library in creation order; Limit of 0 selects the server
// maximum.
type ScreenRequest struct {
	Pattern json.RawMessage `json:"pattern" validate:"required"`
	Options SearchOptions   `json:"options"`
	Offset  int             `json:"offset,omitempty" validate:"min=0"`
	Limit   int             `json:"limit,omitempty" validate:"min=0"`
}

// ScreenHit is one library entry containing the pattern.
type ScreenHit struct {
	MoleculeID string  `json:"molecule_id"`
	Name       string  `json:"name,omitempty"`
	Count      int     `json:"count"`
	Sets       [][]int `json:"sets,omitempty"`
	Maps       [][]int `json:"maps,omitempty"`
}

// ScreenFailure is an entry that could not be searched.
type ScreenFailure struct {
	MoleculeID string `json:"molecule_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// ScreenResponse summarises a library screen. Prefiltered entries were
// skipped because their element composition cannot hold the pattern.
type ScreenResponse struct {
	SearchID    string          `json:"search_id"`
	LibraryID   string          `json:"library_id"`
	Total       int64           `json:"total"`
	Screened    int             `json:"screened"`
	Prefiltered int             `json:"prefiltered"`
	Hits        []ScreenHit     `json:"hits"`
	Failures    []ScreenFailure `json:"failures,omitempty"`
	Truncated   bool            `json:"truncated"`
	DurationMS  int64           `json:"duration_ms"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Asynchronous screening jobs
// ─────────────────────────────────────────────────────────────────────────────

// JobStatus is the lifecycle state of a screening job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobRequest queues a library screen for the worker.
type JobRequest struct {
	LibraryID string        `json:"library_id" validate:"required,uuid"`
	Screen    ScreenRequest `json:"screen"`
}

// JobMessage is the payload of a screening request event.
type JobMessage struct {
	JobID     string        `json:"job_id"`
	LibraryID string        `json:"library_id"`
	Screen    ScreenRequest `json:"screen"`
}

// JobResult is the state of a job as stored and as published on the result
// topic.
type JobResult struct {
	JobID       string          `json:"job_id"`
	LibraryID   string          `json:"library_id"`
	Status      JobStatus       `json:"status"`
	Result      *ScreenResponse `json:"result,omitempty"`
	ErrorCode   string          `json:"error_code,omitempty"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

//Personal.AI order the ending
