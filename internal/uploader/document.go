package uploader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/state"
	"github.com/quantmind-br/wikiport/internal/utils"
)

// DocumentSyncer drives one page at a time to its remote document: create
// when absent, skip when already created, update when forced. Every remote
// mutation is committed to the state store before returning.
type DocumentSyncer struct {
	api      domain.API
	store    *state.Store
	executor *Executor
	logger   *utils.Logger
}

// DocumentSyncerOptions contains options for creating a DocumentSyncer
type DocumentSyncerOptions struct {
	API      domain.API
	Store    *state.Store
	Executor *Executor
	Logger   *utils.Logger
}

// NewDocumentSyncer creates a new DocumentSyncer
func NewDocumentSyncer(opts DocumentSyncerOptions) *DocumentSyncer {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &DocumentSyncer{
		api:      opts.API,
		store:    opts.Store,
		executor: opts.Executor,
		logger:   logger.WithComponent("document"),
	}
}

// Sync brings one page to its remote document. The caller walks pages in
// linearized order, so the parent's remote identifier (empty for roots) is
// already known when a page arrives here.
func (d *DocumentSyncer) Sync(ctx context.Context, spaceKey, collectionID string, page *domain.Page, parentRemoteID string, opts domain.RunOptions) (Outcome, error) {
	if strings.TrimSpace(page.Body) == "" {
		page.Body = fmt.Sprintf("# %s\n\n*No content was exported for this page.*", page.Title)
	}

	if page.Created {
		if !opts.Force {
			d.logger.Debug().Str("space", spaceKey).Str("page", page.LocalID).Msg("Page already created, skipping")
			return OutcomeSkipped, nil
		}
		return d.update(ctx, spaceKey, page)
	}

	// A remote identifier without the created flag means a previous run
	// created the document but crashed before its commit, and the identifier
	// was recorded out of band. Re-query by identifier, never by title.
	if page.RemoteID != "" {
		recovered, err := d.recover(ctx, spaceKey, page)
		if err != nil {
			return OutcomeFailed, err
		}
		if recovered {
			return OutcomeSkipped, nil
		}
	}

	req := domain.CreateDocumentRequest{
		CollectionID:     collectionID,
		Title:            page.Title,
		Text:             page.Body,
		ParentDocumentID: parentRemoteID,
		Publish:          opts.Publish,
	}

	var doc *domain.Document
	err := d.executor.Do(ctx, "documents.create", func() error {
		var opErr error
		doc, opErr = d.api.CreateDocument(ctx, req)
		return opErr
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("create document %q: %w", page.Title, err)
	}

	page.RemoteID = doc.ID
	page.Created = true
	page.ContentHash = utils.HashDocument(page.Title, page.Body)

	if err := d.store.SetPage(spaceKey, page.LocalID, state.PageState{
		RemoteID:    page.RemoteID,
		Created:     true,
		ContentHash: page.ContentHash,
	}); err != nil {
		return OutcomeFailed, fmt.Errorf("commit page %s: %w", page.LocalID, err)
	}

	d.logger.Info().
		Str("space", spaceKey).
		Str("page", page.LocalID).
		Str("document_id", doc.ID).
		Msg("Document created")
	return OutcomeCreated, nil
}

// recover adopts a document whose identifier is known but whose creation was
// never committed. Returns false (no error) when the identifier no longer
// resolves remotely, in which case the caller creates a fresh document.
func (d *DocumentSyncer) recover(ctx context.Context, spaceKey string, page *domain.Page) (bool, error) {
	var doc *domain.Document
	err := d.executor.Do(ctx, "documents.info", func() error {
		var opErr error
		doc, opErr = d.api.GetDocument(ctx, page.RemoteID)
		return opErr
	})
	if errors.Is(err, domain.ErrNotFound) {
		page.RemoteID = ""
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("recover document %s: %w", page.RemoteID, err)
	}

	page.RemoteID = doc.ID
	page.Created = true
	page.ContentHash = utils.HashDocument(page.Title, page.Body)

	if err := d.store.SetPage(spaceKey, page.LocalID, state.PageState{
		RemoteID:    page.RemoteID,
		Created:     true,
		ContentHash: page.ContentHash,
	}); err != nil {
		return false, fmt.Errorf("commit page %s: %w", page.LocalID, err)
	}

	d.logger.Info().
		Str("space", spaceKey).
		Str("page", page.LocalID).
		Str("document_id", page.RemoteID).
		Msg("Recovered document from stored identifier")
	return true, nil
}

// update pushes title and body of an already-created page. An unchanged
// content hash means the remote is already current and the call is skipped;
// the hash covers the title too, so a renamed page still gets pushed.
func (d *DocumentSyncer) update(ctx context.Context, spaceKey string, page *domain.Page) (Outcome, error) {
	hash := utils.HashDocument(page.Title, page.Body)
	if hash == page.ContentHash {
		d.logger.Debug().Str("space", spaceKey).Str("page", page.LocalID).Msg("Content unchanged, skipping update")
		return OutcomeSkipped, nil
	}

	err := d.executor.Do(ctx, "documents.update", func() error {
		_, opErr := d.api.UpdateDocument(ctx, page.RemoteID, page.Title, page.Body)
		return opErr
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("update document %q: %w", page.Title, err)
	}

	page.ContentHash = hash
	if err := d.store.SetPage(spaceKey, page.LocalID, state.PageState{
		RemoteID:    page.RemoteID,
		Created:     true,
		ContentHash: hash,
	}); err != nil {
		return OutcomeFailed, fmt.Errorf("commit page %s: %w", page.LocalID, err)
	}

	d.logger.Info().
		Str("space", spaceKey).
		Str("page", page.LocalID).
		Str("document_id", page.RemoteID).
		Msg("Document updated")
	return OutcomeUpdated, nil
}

// Push writes an explicit body to an already-created page and commits the
// new content hash. Used by the attachment pipeline after token resolution.
func (d *DocumentSyncer) Push(ctx context.Context, spaceKey string, page *domain.Page, body string) error {
	err := d.executor.Do(ctx, "documents.update", func() error {
		_, opErr := d.api.UpdateDocument(ctx, page.RemoteID, page.Title, body)
		return opErr
	})
	if err != nil {
		return fmt.Errorf("update document %q: %w", page.Title, err)
	}

	page.Body = body
	page.ContentHash = utils.HashDocument(page.Title, body)
	if err := d.store.SetPage(spaceKey, page.LocalID, state.PageState{
		RemoteID:    page.RemoteID,
		Created:     true,
		ContentHash: page.ContentHash,
	}); err != nil {
		return fmt.Errorf("commit page %s: %w", page.LocalID, err)
	}
	return nil
}
