package domain

import "context"

// Collection is a remote container object, one per space.
type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Document is a remote object corresponding to one local page.
type Document struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Text             string `json:"text,omitempty"`
	CollectionID     string `json:"collectionId,omitempty"`
	ParentDocumentID string `json:"parentDocumentId,omitempty"`
	URL              string `json:"url,omitempty"`
}

// AttachmentRef is the remote identity of an uploaded binary.
type AttachmentRef struct {
	ID       string `json:"id"`
	Location string `json:"url,omitempty"`
}

// CreateDocumentRequest carries the fields of a document create call.
type CreateDocumentRequest struct {
	CollectionID     string
	Title            string
	Text             string
	ParentDocumentID string
	Publish          bool
}

// API is the remote knowledge-base capability consumed by the synchronizer.
// It is not tied to one vendor; internal/outline provides the concrete
// implementation.
type API interface {
	// AuthInfo verifies the bearer credential and returns the authenticated
	// user's display name.
	AuthInfo(ctx context.Context) (string, error)

	CreateCollection(ctx context.Context, name, description string) (*Collection, error)
	ListCollections(ctx context.Context, limit, offset int) ([]Collection, error)
	// GetCollection returns ErrNotFound when the identifier no longer exists.
	GetCollection(ctx context.Context, id string) (*Collection, error)

	CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, error)
	UpdateDocument(ctx context.Context, id, title, text string) (*Document, error)
	// GetDocument returns ErrNotFound when the identifier no longer exists.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// UploadAttachment registers and uploads a binary bound to an existing
	// remote document, returning its identifier and location descriptor.
	UploadAttachment(ctx context.Context, documentID, localPath, filename string) (*AttachmentRef, error)

	// AttachmentEndpoint returns the canonical URL prefix that resolved
	// reference tokens point at (identifier appended as a query parameter).
	AttachmentEndpoint() string
}
