package uploader

import (
	"context"
	"fmt"

	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/state"
	"github.com/quantmind-br/wikiport/internal/utils"
)

// SpaceSyncer runs the full synchronization of one space: resolve the
// collection, create documents parent-first, upload attachments, resolve
// reference tokens. Items within a space are strictly sequential; the
// orchestrator parallelizes across spaces only.
type SpaceSyncer struct {
	api        domain.API
	store      *state.Store
	resolver   *CollectionResolver
	docs       *DocumentSyncer
	atts       *AttachmentPipeline
	logger     *utils.Logger
	noProgress bool
}

// SpaceSyncerOptions contains options for creating a SpaceSyncer
type SpaceSyncerOptions struct {
	API      domain.API
	Store    *state.Store
	Executor *Executor
	Strategy AmbiguityStrategy
	Logger   *utils.Logger

	// NoProgress suppresses the terminal progress bar (tests, quiet runs).
	NoProgress bool
}

// NewSpaceSyncer creates a new SpaceSyncer and its component pipeline
func NewSpaceSyncer(opts SpaceSyncerOptions) *SpaceSyncer {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}

	docs := NewDocumentSyncer(DocumentSyncerOptions{
		API:      opts.API,
		Store:    opts.Store,
		Executor: opts.Executor,
		Logger:   logger,
	})

	return &SpaceSyncer{
		api:      opts.API,
		store:    opts.Store,
		resolver: NewCollectionResolver(CollectionResolverOptions{
			API:      opts.API,
			Store:    opts.Store,
			Executor: opts.Executor,
			Strategy: opts.Strategy,
			Logger:   logger,
		}),
		docs: docs,
		atts: NewAttachmentPipeline(AttachmentPipelineOptions{
			API:      opts.API,
			Store:    opts.Store,
			Docs:     docs,
			Executor: opts.Executor,
			Logger:   logger,
		}),
		logger:     logger.WithComponent("syncer"),
		noProgress: opts.NoProgress,
	}
}

// Run synchronizes one space end to end and reports per-item outcomes. A
// returned report with FatalErr set means the run aborted partway; committed
// progress survives for the next invocation.
func (s *SpaceSyncer) Run(ctx context.Context, sp *domain.Space, opts domain.RunOptions) *Report {
	report := &Report{SpaceKey: sp.Key}

	st, err := s.store.LoadOrCreate(sp.Key)
	if err != nil {
		report.FatalErr = fmt.Errorf("load state: %w", err)
		return report
	}
	hydrate(sp, st)

	collectionID, err := s.resolver.Resolve(ctx, sp, st)
	if err != nil {
		report.FatalErr = err
		return report
	}
	report.CollectionID = collectionID
	sp.CollectionID = collectionID

	ordered, err := Linearize(sp)
	if err != nil {
		report.FatalErr = err
		return report
	}

	var bar utils.Progress
	if !s.noProgress {
		bar = utils.NewProgressBar(len(ordered)+len(sp.Attachments), fmt.Sprintf("Syncing %s", sp.Key))
	} else {
		bar = utils.NopProgress{}
	}

	s.syncPages(ctx, sp, ordered, collectionID, opts, report, bar)
	if report.FatalErr != nil {
		return report
	}
	s.syncAttachments(ctx, sp, ordered, report, bar)
	if report.FatalErr != nil {
		return report
	}
	s.resolveTokens(ctx, sp, ordered, report)

	s.logger.Info().Str("space", sp.Key).Msg(report.Summary())
	return report
}

// syncPages walks the linearized order. A page whose parent never got a
// remote document fails without a remote call, which cascades down the
// whole subtree.
func (s *SpaceSyncer) syncPages(ctx context.Context, sp *domain.Space, ordered []*domain.Page, collectionID string, opts domain.RunOptions, report *Report, bar utils.Progress) {
	for _, page := range ordered {
		if err := ctx.Err(); err != nil {
			report.FatalErr = err
			return
		}

		parentRemoteID := ""
		if page.ParentLocalID != "" {
			parent, _ := sp.PageByLocalID(page.ParentLocalID)
			if !parent.Created {
				report.Add(ItemResult{
					Kind:    KindPage,
					LocalID: page.LocalID,
					Title:   page.Title,
					Outcome: OutcomeFailed,
					Err:     fmt.Errorf("%w: %s", domain.ErrParentNotCreated, page.ParentLocalID),
				})
				bar.Add(1)
				continue
			}
			parentRemoteID = parent.RemoteID
		}

		outcome, err := s.docs.Sync(ctx, sp.Key, collectionID, page, parentRemoteID, opts)
		if err != nil && domain.IsFatalForSpace(err) {
			report.FatalErr = err
			return
		}
		report.Add(ItemResult{
			Kind:    KindPage,
			LocalID: page.LocalID,
			Title:   page.Title,
			Outcome: outcome,
			Err:     err,
		})
		bar.Add(1)
	}
}

// syncAttachments uploads each page's binaries once its document exists.
// Attachments of pages that never got created fail without a remote call.
func (s *SpaceSyncer) syncAttachments(ctx context.Context, sp *domain.Space, ordered []*domain.Page, report *Report, bar utils.Progress) {
	for _, page := range ordered {
		for _, att := range sp.AttachmentsForPage(page.LocalID) {
			if err := ctx.Err(); err != nil {
				report.FatalErr = err
				return
			}

			if !page.Created {
				report.Add(ItemResult{
					Kind:    KindAttachment,
					LocalID: att.Token,
					Title:   att.FileName,
					Outcome: OutcomeFailed,
					Err:     fmt.Errorf("owning page %s: %w", page.LocalID, domain.ErrParentNotCreated),
				})
				bar.Add(1)
				continue
			}

			outcome, err := s.atts.Upload(ctx, sp.Key, att, page.RemoteID)
			if err != nil && domain.IsFatalForSpace(err) {
				report.FatalErr = err
				return
			}
			report.Add(ItemResult{
				Kind:    KindAttachment,
				LocalID: att.Token,
				Title:   att.FileName,
				Outcome: outcome,
				Err:     err,
			})
			bar.Add(1)
		}
	}
}

// resolveTokens runs after all uploads so that cross-page references resolve
// in the same pass. A resolution failure is item-scoped: the page keeps its
// literal tokens and the run continues.
func (s *SpaceSyncer) resolveTokens(ctx context.Context, sp *domain.Space, ordered []*domain.Page, report *Report) {
	for _, page := range ordered {
		if !page.Created {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.FatalErr = err
			return
		}

		if err := s.atts.ResolvePage(ctx, sp, page); err != nil {
			if domain.IsFatalForSpace(err) {
				report.FatalErr = err
				return
			}
			report.Add(ItemResult{
				Kind:    KindPage,
				LocalID: page.LocalID,
				Title:   page.Title,
				Outcome: OutcomeFailed,
				Err:     fmt.Errorf("resolve attachment links: %w", err),
			})
		}
	}
}

// hydrate copies committed state onto the in-memory space so skip decisions
// and parent lookups see prior progress.
func hydrate(sp *domain.Space, st *state.SpaceState) {
	for _, p := range sp.Pages {
		if ps, ok := st.Page(p.LocalID); ok {
			p.RemoteID = ps.RemoteID
			p.Created = ps.Created
			p.ContentHash = ps.ContentHash
		}
	}
	for _, a := range sp.Attachments {
		if as, ok := st.Attachment(a.Token); ok {
			a.RemoteID = as.RemoteID
			a.Uploaded = as.Uploaded
		}
	}
	sp.CollectionID = st.CollectionID
}
