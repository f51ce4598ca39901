package models

import "time"

// File describes one stored file. StoragePath is the blob store location of
// the bytes; (OwnerID, Filename) is unique among live records.
type File struct {
	ID          string
	OwnerID     string
	Filename    string
	StoragePath string
	Size        int64
	CreatedAt   time.Time
}
