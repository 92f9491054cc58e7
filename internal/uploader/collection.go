package uploader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/state"
	"github.com/quantmind-br/wikiport/internal/utils"
)

const listCollectionsPageSize = 100

// AmbiguityStrategy decides which remote collection to adopt when several
// share the space name. Implementations must never guess: the non-interactive
// default surfaces the ambiguity as a fatal error.
type AmbiguityStrategy interface {
	Choose(name string, candidates []domain.Collection) (string, error)
}

// FailOnAmbiguity is the default strategy: an ambiguous name aborts the
// space so the operator can resolve it.
type FailOnAmbiguity struct{}

func (FailOnAmbiguity) Choose(name string, candidates []domain.Collection) (string, error) {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return "", &domain.AmbiguousMatchError{Name: name, CollectionIDs: ids}
}

// CollectionResolver maps a space to exactly one remote collection, creating
// it when absent, and commits the binding before any document work starts.
type CollectionResolver struct {
	api      domain.API
	store    *state.Store
	executor *Executor
	strategy AmbiguityStrategy
	logger   *utils.Logger
}

// CollectionResolverOptions contains options for creating a CollectionResolver
type CollectionResolverOptions struct {
	API      domain.API
	Store    *state.Store
	Executor *Executor
	Strategy AmbiguityStrategy
	Logger   *utils.Logger
}

// NewCollectionResolver creates a new CollectionResolver
func NewCollectionResolver(opts CollectionResolverOptions) *CollectionResolver {
	strategy := opts.Strategy
	if strategy == nil {
		strategy = FailOnAmbiguity{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &CollectionResolver{
		api:      opts.API,
		store:    opts.Store,
		executor: opts.Executor,
		strategy: strategy,
		logger:   logger.WithComponent("collection"),
	}
}

// Resolve returns the remote collection identifier for the space. Resolution
// order: stored binding (verified against the remote), exact name match among
// existing collections, create. Any failure here is fatal for the space.
func (r *CollectionResolver) Resolve(ctx context.Context, sp *domain.Space, st *state.SpaceState) (string, error) {
	if st.CollectionID != "" {
		id, err := r.verifyStored(ctx, sp, st.CollectionID)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
		// Stored collection was deleted remotely; fall through and re-resolve.
		r.logger.Warn().
			Str("space", sp.Key).
			Str("collection_id", st.CollectionID).
			Msg("Stored collection no longer exists, re-resolving")
	}

	id, err := r.findByName(ctx, sp)
	if err != nil {
		return "", err
	}

	if id == "" {
		description := sp.Description
		if description == "" {
			description = fmt.Sprintf("Imported from wiki space: %s", sp.Key)
		}

		var created *domain.Collection
		err = r.executor.Do(ctx, "collections.create", func() error {
			var opErr error
			created, opErr = r.api.CreateCollection(ctx, sp.Name, description)
			return opErr
		})
		if err != nil {
			return "", fmt.Errorf("create collection for space %s: %w", sp.Key, err)
		}
		id = created.ID
		r.logger.Info().Str("space", sp.Key).Str("collection_id", id).Msg("Collection created")
	}

	if err := r.store.SetCollection(sp.Key, id); err != nil {
		return "", fmt.Errorf("commit collection binding: %w", err)
	}
	return id, nil
}

// verifyStored checks that a previously committed collection still exists.
// Returns empty (no error) when the remote object is gone.
func (r *CollectionResolver) verifyStored(ctx context.Context, sp *domain.Space, id string) (string, error) {
	var col *domain.Collection
	err := r.executor.Do(ctx, "collections.info", func() error {
		var opErr error
		col, opErr = r.api.GetCollection(ctx, id)
		return opErr
	})
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("verify collection %s: %w", id, err)
	}
	return col.ID, nil
}

// findByName scans all remote collections for an exact name match. Zero
// matches means create; more than one goes to the ambiguity strategy.
func (r *CollectionResolver) findByName(ctx context.Context, sp *domain.Space) (string, error) {
	var matches []domain.Collection

	for offset := 0; ; offset += listCollectionsPageSize {
		var page []domain.Collection
		err := r.executor.Do(ctx, "collections.list", func() error {
			var opErr error
			page, opErr = r.api.ListCollections(ctx, listCollectionsPageSize, offset)
			return opErr
		})
		if err != nil {
			return "", fmt.Errorf("list collections: %w", err)
		}
		for _, c := range page {
			if c.Name == sp.Name {
				matches = append(matches, c)
			}
		}
		if len(page) < listCollectionsPageSize {
			break
		}
	}

	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		r.logger.Info().
			Str("space", sp.Key).
			Str("collection_id", matches[0].ID).
			Msg("Adopted existing collection")
		return matches[0].ID, nil
	default:
		sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
		id, err := r.strategy.Choose(sp.Name, matches)
		if err != nil {
			return "", err
		}
		if !containsID(matches, id) {
			return "", fmt.Errorf("ambiguity strategy chose %q, not among candidates [%s]",
				id, joinIDs(matches))
		}
		return id, nil
	}
}

func containsID(cols []domain.Collection, id string) bool {
	for _, c := range cols {
		if c.ID == id {
			return true
		}
	}
	return false
}

func joinIDs(cols []domain.Collection) string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	return strings.Join(ids, ", ")
}
