package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrEmailRequired is returned when a submission arrives without an email address.
var ErrEmailRequired = errors.New("Email is required")

const (
	// AnonymousName is recorded when the submitter leaves the name blank.
	AnonymousName = "Anonymous"
	// TimestampLayout matches the millisecond UTC form browsers emit for toISOString.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// Inbound is the decoded request body of an email submission. Server-assigned
// fields may be omitted by the client.
type Inbound struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Timestamp    string `json:"timestamp"`
	Audience     string `json:"audience"`
	GuestBio     string `json:"guestBio"`
	Questions    string `json:"questions"`
	GenerateMode bool   `json:"generateMode"`
}

// Record is the immutable submission handed to every sink.
type Record struct {
	Timestamp    string `json:"timestamp"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Audience     string `json:"audience"`
	GuestBio     string `json:"guestBio"`
	Questions    string `json:"questions"`
	GenerateMode bool   `json:"generateMode"`

	rawName string
}

// NewRecord validates the inbound body and applies defaults. receivedAt is
// used when the client did not send its own timestamp.
func NewRecord(in Inbound, receivedAt time.Time) (Record, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return Record{}, ErrEmailRequired
	}

	name := strings.TrimSpace(in.Name)
	displayName := name
	if displayName == "" {
		displayName = AnonymousName
	}

	timestamp := strings.TrimSpace(in.Timestamp)
	if timestamp == "" {
		timestamp = receivedAt.UTC().Format(TimestampLayout)
	}

	return Record{
		Timestamp:    timestamp,
		Email:        email,
		Name:         displayName,
		Audience:     in.Audience,
		GuestBio:     in.GuestBio,
		Questions:    in.Questions,
		GenerateMode: in.GenerateMode,
		rawName:      name,
	}, nil
}

// SplitName returns first and last name split on the first space of the name
// the submitter actually typed. An anonymous submission yields two empty strings.
func (r Record) SplitName() (first, last string) {
	first, last, _ = strings.Cut(r.rawName, " ")
	return first, strings.TrimSpace(last)
}
