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

func newSyncer(api domain.API, store *state.Store) *uploader.SpaceSyncer {
	return uploader.NewSpaceSyncer(uploader.SpaceSyncerOptions{
		API:        api,
		Store:      store,
		Executor:   uploader.NewExecutor(fastPolicy(), testLogger()),
		Logger:     testLogger(),
		NoProgress: true,
	})
}

func twoPageSpace() *domain.Space {
	return &domain.Space{
		Key:  "ENG",
		Name: "Engineering",
		Pages: []*domain.Page{
			{LocalID: "root", Title: "Root", Body: "root body"},
			{LocalID: "child", ParentLocalID: "root", Title: "Child", Body: "pic: {attachments/c1/img.png}"},
		},
		Attachments: []*domain.Attachment{
			{
				LocalPath:    "/tmp/img.png",
				FileName:     "img.png",
				Token:        "attachments/c1/img.png",
				OwningPageID: "child",
			},
		},
	}
}

func TestSpaceSyncer_FreshRun(t *testing.T) {
	api := new(MockAPI)
	api.On("ListCollections", mock.Anything, 100, 0).Return([]domain.Collection{}, nil)
	api.On("CreateCollection", mock.Anything, "Engineering", "Imported from wiki space: ENG").Return(
		&domain.Collection{ID: "col-1"}, nil)
	api.On("CreateDocument", mock.Anything, mock.MatchedBy(func(req domain.CreateDocumentRequest) bool {
		return req.Title == "Root" && req.ParentDocumentID == ""
	})).Return(&domain.Document{ID: "doc-root"}, nil)
	api.On("CreateDocument", mock.Anything, mock.MatchedBy(func(req domain.CreateDocumentRequest) bool {
		return req.Title == "Child" && req.ParentDocumentID == "doc-root"
	})).Return(&domain.Document{ID: "doc-child"}, nil)
	api.On("UploadAttachment", mock.Anything, "doc-child", "/tmp/img.png", "img.png").Return(
		&domain.AttachmentRef{ID: "att-1"}, nil)
	api.On("AttachmentEndpoint").Return(endpoint)
	api.On("UpdateDocument", mock.Anything, "doc-child", "Child",
		"pic: ![]("+endpoint+"?id=att-1)").Return(&domain.Document{ID: "doc-child"}, nil)

	store := newTestStore(t)
	s := newSyncer(api, store)

	report := s.Run(context.Background(), twoPageSpace(), domain.RunOptions{Publish: true})
	require.NoError(t, report.FatalErr)
	assert.True(t, report.OK())
	assert.Equal(t, "col-1", report.CollectionID)
	assert.Equal(t, 2, report.Count(uploader.OutcomeCreated))
	assert.Equal(t, 1, report.Count(uploader.OutcomeUploaded))
	api.AssertExpectations(t)

	// Everything committed.
	st, err := store.Load("ENG")
	require.NoError(t, err)
	assert.Equal(t, "col-1", st.CollectionID)
	assert.Equal(t, 2, st.CreatedCount())
	assert.Equal(t, 1, st.UploadedCount())
}

func TestSpaceSyncer_ResumeSkipsCommittedWork(t *testing.T) {
	resolvedChild := "pic: ![](" + endpoint + "?id=att-1)"

	store := newTestStore(t)
	require.NoError(t, store.SetCollection("ENG", "col-1"))
	require.NoError(t, store.SetPage("ENG", "root", state.PageState{
		RemoteID: "doc-root", Created: true, ContentHash: utils.HashDocument("Root", "root body"),
	}))
	require.NoError(t, store.SetPage("ENG", "child", state.PageState{
		RemoteID: "doc-child", Created: true, ContentHash: utils.HashDocument("Child", resolvedChild),
	}))
	require.NoError(t, store.SetAttachment("ENG", "attachments/c1/img.png", state.AttachmentState{
		RemoteID: "att-1", Uploaded: true,
	}))

	api := new(MockAPI)
	api.On("GetCollection", mock.Anything, "col-1").Return(&domain.Collection{ID: "col-1"}, nil)
	api.On("AttachmentEndpoint").Return(endpoint)

	s := newSyncer(api, store)
	report := s.Run(context.Background(), twoPageSpace(), domain.RunOptions{})

	require.NoError(t, report.FatalErr)
	assert.True(t, report.OK())
	assert.Equal(t, 3, report.Count(uploader.OutcomeSkipped))
	api.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "UploadAttachment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "UpdateDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSpaceSyncer_ParentFailureCascades(t *testing.T) {
	api := new(MockAPI)
	api.On("ListCollections", mock.Anything, 100, 0).Return([]domain.Collection{
		{ID: "col-1", Name: "Engineering"},
	}, nil)
	api.On("CreateDocument", mock.Anything, mock.MatchedBy(func(req domain.CreateDocumentRequest) bool {
		return req.Title == "Root"
	})).Return(nil, domain.NewAPIError("documents.create", 400, "rejected", nil))

	store := newTestStore(t)
	s := newSyncer(api, store)

	report := s.Run(context.Background(), twoPageSpace(), domain.RunOptions{})
	require.NoError(t, report.FatalErr)
	assert.False(t, report.OK())
	assert.Equal(t, 3, report.Count(uploader.OutcomeFailed), "root, child, and attachment all fail")

	for _, it := range report.Failed() {
		if it.LocalID == "child" {
			assert.ErrorIs(t, it.Err, domain.ErrParentNotCreated)
		}
	}
	// Only the root ever reached the remote.
	api.AssertNumberOfCalls(t, "CreateDocument", 1)
	api.AssertNotCalled(t, "UploadAttachment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSpaceSyncer_StructuralErrorIsFatal(t *testing.T) {
	api := new(MockAPI)
	api.On("ListCollections", mock.Anything, 100, 0).Return([]domain.Collection{
		{ID: "col-1", Name: "Engineering"},
	}, nil)

	sp := &domain.Space{
		Key:  "ENG",
		Name: "Engineering",
		Pages: []*domain.Page{
			{LocalID: "1", ParentLocalID: "ghost", Title: "Orphan"},
		},
	}

	s := newSyncer(api, newTestStore(t))
	report := s.Run(context.Background(), sp, domain.RunOptions{})

	var structural *domain.StructuralError
	require.ErrorAs(t, report.FatalErr, &structural)
	assert.False(t, report.OK())
	api.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
}

func TestSpaceSyncer_AuthFailureAbortsRun(t *testing.T) {
	api := new(MockAPI)
	api.On("ListCollections", mock.Anything, 100, 0).Return(nil,
		domain.NewAPIError("collections.list", 401, "unauthorized", domain.ErrAuthFailed))

	s := newSyncer(api, newTestStore(t))
	report := s.Run(context.Background(), twoPageSpace(), domain.RunOptions{})

	require.Error(t, report.FatalErr)
	assert.ErrorIs(t, report.FatalErr, domain.ErrAuthFailed)
}

func TestSpaceSyncer_ItemFailureDoesNotStopSiblings(t *testing.T) {
	api := new(MockAPI)
	api.On("ListCollections", mock.Anything, 100, 0).Return([]domain.Collection{}, nil)
	api.On("CreateCollection", mock.Anything, "Engineering", "Imported from wiki space: ENG").Return(
		&domain.Collection{ID: "col-1"}, nil)
	api.On("CreateDocument", mock.Anything, mock.MatchedBy(func(req domain.CreateDocumentRequest) bool {
		return req.Title == "Bad"
	})).Return(nil, domain.NewAPIError("documents.create", 400, "rejected", nil))
	api.On("CreateDocument", mock.Anything, mock.MatchedBy(func(req domain.CreateDocumentRequest) bool {
		return req.Title == "Good"
	})).Return(&domain.Document{ID: "doc-good"}, nil)
	api.On("AttachmentEndpoint").Return(endpoint)

	sp := &domain.Space{
		Key:  "ENG",
		Name: "Engineering",
		Pages: []*domain.Page{
			{LocalID: "a", Title: "Bad", Body: "x"},
			{LocalID: "b", Title: "Good", Body: "y"},
		},
	}

	s := newSyncer(api, newTestStore(t))
	report := s.Run(context.Background(), sp, domain.RunOptions{})

	require.NoError(t, report.FatalErr)
	assert.Equal(t, 1, report.Count(uploader.OutcomeFailed))
	assert.Equal(t, 1, report.Count(uploader.OutcomeCreated))
	assert.False(t, report.OK())
}
