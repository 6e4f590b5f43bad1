package restclient

import (
	"context"
	"io"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
)

// ImageUpload is the result of an image upload.
type ImageUpload struct {
	ImageURL string `json:"imageUrl"`
	PublicId string `json:"publicId"`
}

// FileUpload is the result of a generic file upload.
type FileUpload struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
	PublicId string `json:"publicId"`
}

// ProfilePictureUpload is the result of a profile picture upload.
type ProfilePictureUpload struct {
	ProfilePictureURL string `json:"profilePictureUrl"`
	PublicId          string `json:"publicId"`
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// ProfileParams are the mutable profile fields.
type ProfileParams struct {
	DisplayName string `json:"displayName,omitempty"`
	About       string `json:"about,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Service is the REST surface the session and call layers depend on.
type Service interface {
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Register(ctx context.Context, username, email, password string) (AuthResult, error)
	Channels(ctx context.Context) ([]types.Channel, error)
	CreateChannel(ctx context.Context, name string) (types.Channel, error)
	DeleteChannel(ctx context.Context, id string) error
	Users(ctx context.Context) ([]types.User, error)
	ChannelMessages(ctx context.Context, channelId string) ([]types.Message, error)
	DirectMessages(ctx context.Context, userId string) ([]types.Message, error)
	EditMessage(ctx context.Context, messageId, content string) (types.Message, error)
	DeleteMessage(ctx context.Context, messageId string) (types.Message, error)
	UploadImage(ctx context.Context, filename string, r io.Reader) (ImageUpload, error)
	UploadFile(ctx context.Context, filename string, r io.Reader) (FileUpload, error)
	Profile(ctx context.Context, userId string) (types.User, error)
	CurrentProfile(ctx context.Context) (types.User, error)
	UpdateProfile(ctx context.Context, userId string, params ProfileParams) (types.User, error)
	UploadProfilePicture(ctx context.Context, filename string, r io.Reader) (ProfilePictureUpload, error)
}
