// Package store persists expert records keyed by GitHub username.
package store

import (
	"context"
	"time"
)

const (
	DefaultDatabase   = "domain"
	DefaultCollection = "experts"
)

// Record is the persisted expert document. Field names match the existing
// experts collection.
type Record struct {
	Name        string    `bson:"name" json:"name"`
	Username    string    `bson:"username" json:"username"`
	Location    string    `bson:"location" json:"location"`
	ProfileURL  string    `bson:"profile_url" json:"profile_url"`
	Avatar      string    `bson:"avatar" json:"avatar"`
	Domain      string    `bson:"domain" json:"domain"`
	LinkedInURL string    `bson:"linkedin_url" json:"linkedin_url"`
	About       string    `bson:"about" json:"about"`
	Followers   int       `bson:"followers" json:"followers"`
	PublicRepos int       `bson:"public_repos" json:"public_repos"`
	Score       int       `bson:"score" json:"score"`
	ScrapedAt   time.Time `bson:"scraped_at" json:"scraped_at"`
	HasLinkedIn bool      `bson:"has_linkedin" json:"has_linkedin"`
}

// Store is the expert collection used by a run.
type Store interface {
	EnsureIndexes(ctx context.Context) error
	Exists(ctx context.Context, username string) (bool, error)
	// Upsert creates the record or overwrites every field of the existing one.
	Upsert(ctx context.Context, rec Record) error
	Close(ctx context.Context) error
}

// Inserter bulk-loads arbitrary documents.
type Inserter interface {
	InsertMany(ctx context.Context, docs []any) (int, error)
}

// IndexedFields are indexed on the expert collection; username is unique.
var IndexedFields = []string{"username", "domain", "location", "score", "has_linkedin"}
