package model

import (
	"time"
)

// StatisticsResponse aggregates approval throughput for a time window.
type StatisticsResponse struct {
	TotalDocuments     int64             `json:"total_documents"`
	StatusCounts       []StatusCount     `json:"status_counts"`
	TopLines           []LineCount       `json:"top_lines"`
	AverageProgress    float64           `json:"average_progress"` // open documents only
	BypassCount        int64             `json:"bypass_count"`
	OldestOpenSteps    []OpenStepRanking `json:"oldest_open_steps"`
	TimeRangeStartDate time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time         `json:"time_range_end_date"`
}

// StatusCount is one row of the documents-by-status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// LineCount ranks production lines by submission volume.
type LineCount struct {
	LineCode string `json:"line_code"`
	Count    int64  `json:"count"`
}

// OpenStepRanking is one longest-waiting ON_GOING step across all documents.
type OpenStepRanking struct {
	DocumentID   string    `json:"document_id"`
	DocNumber    string    `json:"doc_number"`
	StepOrder    int       `json:"step_order"`
	ActorLabel   string    `json:"actor_label"`
	ApproverName string    `json:"approver_name"`
	WaitingSince time.Time `json:"waiting_since"`
}
