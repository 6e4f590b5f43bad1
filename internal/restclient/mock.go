package restclient

import (
	"context"
	"io"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(AuthResult), args.Error(1)
}

func (m *MockService) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	args := m.Called(ctx, username, email, password)
	return args.Get(0).(AuthResult), args.Error(1)
}

func (m *MockService) Channels(ctx context.Context) ([]types.Channel, error) {
	args := m.Called(ctx)
	return args.Get(0).([]types.Channel), args.Error(1)
}

func (m *MockService) CreateChannel(ctx context.Context, name string) (types.Channel, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(types.Channel), args.Error(1)
}

func (m *MockService) DeleteChannel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) Users(ctx context.Context) ([]types.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]types.User), args.Error(1)
}

func (m *MockService) ChannelMessages(ctx context.Context, channelId string) ([]types.Message, error) {
	args := m.Called(ctx, channelId)
	return args.Get(0).([]types.Message), args.Error(1)
}

func (m *MockService) DirectMessages(ctx context.Context, userId string) ([]types.Message, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]types.Message), args.Error(1)
}

func (m *MockService) EditMessage(ctx context.Context, messageId, content string) (types.Message, error) {
	args := m.Called(ctx, messageId, content)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockService) DeleteMessage(ctx context.Context, messageId string) (types.Message, error) {
	args := m.Called(ctx, messageId)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockService) UploadImage(ctx context.Context, filename string, r io.Reader) (ImageUpload, error) {
	args := m.Called(ctx, filename, r)
	return args.Get(0).(ImageUpload), args.Error(1)
}

func (m *MockService) UploadFile(ctx context.Context, filename string, r io.Reader) (FileUpload, error) {
	args := m.Called(ctx, filename, r)
	return args.Get(0).(FileUpload), args.Error(1)
}

func (m *MockService) Profile(ctx context.Context, userId string) (types.User, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *MockService) CurrentProfile(ctx context.Context) (types.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *MockService) UpdateProfile(ctx context.Context, userId string, params ProfileParams) (types.User, error) {
	args := m.Called(ctx, userId, params)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *MockService) UploadProfilePicture(ctx context.Context, filename string, r io.Reader) (ProfilePictureUpload, error) {
	args := m.Called(ctx, filename, r)
	return args.Get(0).(ProfilePictureUpload), args.Error(1)
}
