package state

import "time"

// StateVersion is the schema version for state file migration
const StateVersion = 1

// SpaceState is the durable per-space record of local entities and their
// resolved remote identifiers. It is the sole source of truth for
// resumability.
type SpaceState struct {
	Version      int                        `json:"version"`
	SpaceKey     string                     `json:"space_key"`
	CollectionID string                     `json:"collection_id,omitempty"`
	Pages        map[string]PageState       `json:"pages"`
	Attachments  map[string]AttachmentState `json:"attachments"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// PageState records the remote identity of one local page.
type PageState struct {
	RemoteID    string `json:"remote_id,omitempty"`
	Created     bool   `json:"created"`
	ContentHash string `json:"content_hash,omitempty"`
}

// AttachmentState records the remote identity of one attachment, keyed by
// its reference token.
type AttachmentState struct {
	RemoteID string `json:"remote_id,omitempty"`
	Uploaded bool   `json:"uploaded"`
}

// NewSpaceState creates a new empty state record for a space
func NewSpaceState(key string) *SpaceState {
	return &SpaceState{
		Version:     StateVersion,
		SpaceKey:    key,
		Pages:       make(map[string]PageState),
		Attachments: make(map[string]AttachmentState),
	}
}

// Page returns the state of a page by local identifier.
func (s *SpaceState) Page(localID string) (PageState, bool) {
	p, ok := s.Pages[localID]
	return p, ok
}

// Attachment returns the state of an attachment by reference token.
func (s *SpaceState) Attachment(token string) (AttachmentState, bool) {
	a, ok := s.Attachments[token]
	return a, ok
}

// CreatedCount returns how many pages have a committed remote document.
func (s *SpaceState) CreatedCount() int {
	n := 0
	for _, p := range s.Pages {
		if p.Created {
			n++
		}
	}
	return n
}

// UploadedCount returns how many attachments have a committed remote object.
func (s *SpaceState) UploadedCount() int {
	n := 0
	for _, a := range s.Attachments {
		if a.Uploaded {
			n++
		}
	}
	return n
}
