package model

import "time"

// ProvenanceLink records that a canonical job was observed via a given
// source's posting id.
type ProvenanceLink struct {
	Source     string
	ExternalID string
}

// Job is the canonical record for one real-world job across sources.
// Company, Title and Location are stored normalized; DescriptionHash is
// the content hash over the normalized description. Exactly one Job
// exists per (company, title, location, hash) tuple, and only the dedup
// engine mutates it.
type Job struct {
	ID              string // stable internal id (uuid)
	Company         string
	Title           string
	Location        string
	DescriptionHash string
	Description     string // normalized description text, kept for matching
	URL             string
	Provenance      []ProvenanceLink
	FirstSeen       time.Time
	LastSeen        time.Time
	Active          bool
}

// HasProvenance reports whether the job already carries the given link.
func (j *Job) HasProvenance(link ProvenanceLink) bool {
	for _, p := range j.Provenance {
		if p == link {
			return true
		}
	}
	return false
}

// ParseFailure is the audit record for a raw posting that could not be
// canonicalized. Nothing is silently dropped: every posting either
// becomes/updates a Job or ends up here.
type ParseFailure struct {
	Source  string
	Payload string // offending raw posting, serialized
	Reason  string
	At      time.Time
}
