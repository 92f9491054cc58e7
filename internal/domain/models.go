package domain

// Space is one migrated unit, corresponding to exactly one remote collection.
// Pages form a tree through ParentLocalID; attachments are owned by pages.
type Space struct {
	Key          string        `json:"space_key"`
	Name         string        `json:"space_name"`
	Description  string        `json:"description,omitempty"`
	CollectionID string        `json:"collection_id,omitempty"`
	Pages        []*Page       `json:"pages"`
	Attachments  []*Attachment `json:"attachments,omitempty"`
}

// Page is a single document node of a space.
//
// RemoteID is non-empty if and only if Created is true; the one exception is
// an identifier recorded out of band after a crash between remote creation
// and commit, which the document synchronizer re-verifies before adopting.
// A page's parent must already be created before the page itself is
// synchronized.
type Page struct {
	LocalID       string `json:"local_id"`
	ParentLocalID string `json:"parent_local_id,omitempty"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	RemoteID      string `json:"remote_id,omitempty"`
	Created       bool   `json:"created"`
	ContentHash   string `json:"content_hash,omitempty"`
}

// Attachment is a binary referenced from one or more page bodies through a
// reference token. RemoteID is non-empty iff Uploaded is true; an attachment
// cannot be uploaded before its owning page exists remotely.
type Attachment struct {
	LocalPath     string `json:"local_path"`
	FileName      string `json:"filename"`
	Token         string `json:"reference_token"`
	OwningPageID  string `json:"owning_page_local_id"`
	MimeType      string `json:"mime_type,omitempty"`
	SizeBytes     int64  `json:"size_bytes,omitempty"`
	AltText       string `json:"alt_text,omitempty"`
	SizeDirective string `json:"size_directive,omitempty"`
	RemoteID      string `json:"remote_id,omitempty"`
	Uploaded      bool   `json:"uploaded"`
}

// PageByLocalID returns the page with the given local identifier.
func (s *Space) PageByLocalID(localID string) (*Page, bool) {
	for _, p := range s.Pages {
		if p.LocalID == localID {
			return p, true
		}
	}
	return nil, false
}

// AttachmentsForPage returns the attachments owned by the given page, in
// declaration order.
func (s *Space) AttachmentsForPage(localID string) []*Attachment {
	var out []*Attachment
	for _, a := range s.Attachments {
		if a.OwningPageID == localID {
			out = append(out, a)
		}
	}
	return out
}

// PageCount returns the number of pages in the space.
func (s *Space) PageCount() int {
	return len(s.Pages)
}
