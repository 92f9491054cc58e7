package uploader_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quantmind-br/wikiport/internal/domain"
)

// MockAPI is a testify mock of the remote knowledge-base API.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) AuthInfo(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) CreateCollection(ctx context.Context, name, description string) (*domain.Collection, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Collection), args.Error(1)
}

func (m *MockAPI) ListCollections(ctx context.Context, limit, offset int) ([]domain.Collection, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Collection), args.Error(1)
}

func (m *MockAPI) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Collection), args.Error(1)
}

func (m *MockAPI) CreateDocument(ctx context.Context, req domain.CreateDocumentRequest) (*domain.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockAPI) UpdateDocument(ctx context.Context, id, title, text string) (*domain.Document, error) {
	args := m.Called(ctx, id, title, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockAPI) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockAPI) UploadAttachment(ctx context.Context, documentID, localPath, filename string) (*domain.AttachmentRef, error) {
	args := m.Called(ctx, documentID, localPath, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttachmentRef), args.Error(1)
}

func (m *MockAPI) AttachmentEndpoint() string {
	args := m.Called()
	return args.String(0)
}
