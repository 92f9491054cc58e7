package uploader_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/state"
	"github.com/quantmind-br/wikiport/internal/uploader"
	"github.com/quantmind-br/wikiport/internal/utils"
)

func newDocSyncer(api domain.API, store *state.Store) *uploader.DocumentSyncer {
	return uploader.NewDocumentSyncer(uploader.DocumentSyncerOptions{
		API:      api,
		Store:    store,
		Executor: uploader.NewExecutor(fastPolicy(), testLogger()),
		Logger:   testLogger(),
	})
}

func TestDocumentSyncer_CreatesAndCommits(t *testing.T) {
	api := new(MockAPI)
	api.On("CreateDocument", mock.Anything, domain.CreateDocumentRequest{
		CollectionID: "col-1",
		Title:        "Intro",
		Text:         "hello",
		Publish:      true,
	}).Return(&domain.Document{ID: "doc-1", Title: "Intro"}, nil)

	store := newTestStore(t)
	d := newDocSyncer(api, store)

	page := &domain.Page{LocalID: "p1", Title: "Intro", Body: "hello"}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{Publish: true})
	require.NoError(t, err)
	assert.Equal(t, uploader.OutcomeCreated, outcome)

	assert.Equal(t, "doc-1", page.RemoteID)
	assert.True(t, page.Created)

	st, err := store.Load("ENG")
	require.NoError(t, err)
	ps, ok := st.Page("p1")
	require.True(t, ok)
	assert.Equal(t, "doc-1", ps.RemoteID)
	assert.True(t, ps.Created)
	assert.Equal(t, utils.HashDocument("Intro", "hello"), ps.ContentHash)
}

func TestDocumentSyncer_ChildCarriesParentID(t *testing.T) {
	api := new(MockAPI)
	api.On("CreateDocument", mock.Anything, mock.MatchedBy(func(req domain.CreateDocumentRequest) bool {
		return req.ParentDocumentID == "doc-parent"
	})).Return(&domain.Document{ID: "doc-child"}, nil)

	d := newDocSyncer(api, newTestStore(t))

	page := &domain.Page{LocalID: "p2", ParentLocalID: "p1", Title: "Child", Body: "x"}
	_, err := d.Sync(context.Background(), "ENG", "col-1", page, "doc-parent", domain.RunOptions{})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestDocumentSyncer_SkipsCreatedWithoutForce(t *testing.T) {
	api := new(MockAPI)
	d := newDocSyncer(api, newTestStore(t))

	page := &domain.Page{LocalID: "p1", Title: "Intro", Body: "hello", RemoteID: "doc-1", Created: true}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, uploader.OutcomeSkipped, outcome)
	api.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "UpdateDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentSyncer_ForceUpdatesChangedContent(t *testing.T) {
	api := new(MockAPI)
	api.On("UpdateDocument", mock.Anything, "doc-1", "Intro", "new body").Return(
		&domain.Document{ID: "doc-1"}, nil)

	store := newTestStore(t)
	d := newDocSyncer(api, store)

	page := &domain.Page{
		LocalID:     "p1",
		Title:       "Intro",
		Body:        "new body",
		RemoteID:    "doc-1",
		Created:     true,
		ContentHash: utils.HashDocument("Intro", "old body"),
	}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, uploader.OutcomeUpdated, outcome)
	assert.Equal(t, utils.HashDocument("Intro", "new body"), page.ContentHash)
}

func TestDocumentSyncer_ForceUpdatesChangedTitle(t *testing.T) {
	api := new(MockAPI)
	api.On("UpdateDocument", mock.Anything, "doc-1", "Renamed", "same").Return(
		&domain.Document{ID: "doc-1"}, nil)

	d := newDocSyncer(api, newTestStore(t))

	// Body unchanged since the last run, only the title differs.
	page := &domain.Page{
		LocalID:     "p1",
		Title:       "Renamed",
		Body:        "same",
		RemoteID:    "doc-1",
		Created:     true,
		ContentHash: utils.HashDocument("Old Name", "same"),
	}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, uploader.OutcomeUpdated, outcome)
	api.AssertExpectations(t)
}

func TestDocumentSyncer_ForceSkipsUnchangedContent(t *testing.T) {
	api := new(MockAPI)
	d := newDocSyncer(api, newTestStore(t))

	page := &domain.Page{
		LocalID:     "p1",
		Title:       "Intro",
		Body:        "same",
		RemoteID:    "doc-1",
		Created:     true,
		ContentHash: utils.HashDocument("Intro", "same"),
	}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, uploader.OutcomeSkipped, outcome)
	api.AssertNotCalled(t, "UpdateDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentSyncer_EmptyBodyGetsPlaceholder(t *testing.T) {
	api := new(MockAPI)
	api.On("CreateDocument", mock.Anything, mock.MatchedBy(func(req domain.CreateDocumentRequest) bool {
		return req.Text == "# Empty Page\n\n*No content was exported for this page.*"
	})).Return(&domain.Document{ID: "doc-1"}, nil)

	d := newDocSyncer(api, newTestStore(t))

	page := &domain.Page{LocalID: "p1", Title: "Empty Page", Body: "   \n"}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, uploader.OutcomeCreated, outcome)
	api.AssertExpectations(t)
}

func TestDocumentSyncer_RecoversUncommittedDocument(t *testing.T) {
	api := new(MockAPI)
	api.On("GetDocument", mock.Anything, "doc-orphan").Return(
		&domain.Document{ID: "doc-orphan", Title: "Intro"}, nil)

	store := newTestStore(t)
	d := newDocSyncer(api, store)

	// Identifier recorded out of band, creation never committed.
	page := &domain.Page{LocalID: "p1", Title: "Intro", Body: "hello", RemoteID: "doc-orphan"}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, uploader.OutcomeSkipped, outcome)
	assert.True(t, page.Created)

	st, err := store.Load("ENG")
	require.NoError(t, err)
	ps, ok := st.Page("p1")
	require.True(t, ok)
	assert.Equal(t, "doc-orphan", ps.RemoteID)
	assert.True(t, ps.Created)
	api.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
}

func TestDocumentSyncer_RecoveryFallsBackToCreate(t *testing.T) {
	api := new(MockAPI)
	api.On("GetDocument", mock.Anything, "doc-gone").Return(nil,
		domain.NewAPIError("documents.info", 404, "not found", domain.ErrNotFound))
	api.On("CreateDocument", mock.Anything, mock.Anything).Return(
		&domain.Document{ID: "doc-fresh"}, nil)

	d := newDocSyncer(api, newTestStore(t))

	page := &domain.Page{LocalID: "p1", Title: "Intro", Body: "hello", RemoteID: "doc-gone"}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, uploader.OutcomeCreated, outcome)
	assert.Equal(t, "doc-fresh", page.RemoteID)
}

func TestDocumentSyncer_ValidationFailureIsItemScoped(t *testing.T) {
	api := new(MockAPI)
	api.On("CreateDocument", mock.Anything, mock.Anything).Return(nil,
		domain.NewAPIError("documents.create", 400, "title too long", nil))

	store := newTestStore(t)
	d := newDocSyncer(api, store)

	page := &domain.Page{LocalID: "p1", Title: "Bad", Body: "x"}
	outcome, err := d.Sync(context.Background(), "ENG", "col-1", page, "", domain.RunOptions{})
	assert.Equal(t, uploader.OutcomeFailed, outcome)
	require.Error(t, err)
	assert.False(t, domain.IsFatalForSpace(err))
	assert.False(t, page.Created)

	// Nothing committed for the failed page.
	st, err := store.LoadOrCreate("ENG")
	require.NoError(t, err)
	_, ok := st.Page("p1")
	assert.False(t, ok)
}
