package models

import "time"

// ErrorKind classifies a failure for reporting without exposing error types.
type ErrorKind string

// Error kinds.
const (
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindAuth          ErrorKind = "auth"
	ErrorKindUnavailable   ErrorKind = "provider_unavailable"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindCanceled      ErrorKind = "canceled"
	ErrorKindMalformed     ErrorKind = "malformed"
	ErrorKindIO            ErrorKind = "io"
	ErrorKindUnknown       ErrorKind = "unknown"
)

// FileResult is a successful analysis of one file in a batch.
type FileResult struct {
	Result    *AnalysisResult `json:"result"`
	Path      string          `json:"path"`
	InputType InputType       `json:"input_type"`
}

// FileError records why one file in a batch could not be analyzed.
type FileError struct {
	Err     error     `json:"-"`
	Path    string    `json:"path"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"error"`
}

// BatchResult aggregates a directory scan. Results and Errors are both in
// lexicographic path order.
type BatchResult struct {
	StartedAt  time.Time    `json:"-"`
	FinishedAt time.Time    `json:"-"`
	RunID      string       `json:"run_id"`
	Directory  string       `json:"directory"`
	Pattern    string       `json:"pattern"`
	Files      []string     `json:"-"`
	Results    []FileResult `json:"files"`
	Errors     []FileError  `json:"errors"`
}

// Total returns the number of files the scan attempted.
func (b *BatchResult) Total() int {
	return len(b.Results) + len(b.Errors)
}

// Succeeded returns the number of files analyzed successfully.
func (b *BatchResult) Succeeded() int {
	return len(b.Results)
}

// Summary merges the threat summaries of every successful file.
func (b *BatchResult) Summary() Summary {
	var s Summary
	for _, fr := range b.Results {
		s.Merge(Summarize(fr.Result))
	}
	return s
}

// HighestScore returns the largest overall score across files.
func (b *BatchResult) HighestScore() float64 {
	highest := 0.0
	for _, fr := range b.Results {
		if score := fr.Result.Score(); score > highest {
			highest = score
		}
	}
	return highest
}

// CountAtOrAbove counts threats at level or above across all files.
func (b *BatchResult) CountAtOrAbove(level RiskLevel) int {
	n := 0
	for _, fr := range b.Results {
		n += fr.Result.CountAtOrAbove(level)
	}
	return n
}
