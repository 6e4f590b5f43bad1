package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
)

const requestTimeout = time.Second * 15

// Client talks to the chat HTTP api. All methods attach the bearer token
// and decode the server's response envelopes.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	log        *log.Logger
}

func NewClient(baseURL, authToken string, logger *log.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		log: logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if err := json.NewDecoder(res.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(res.StatusCode)
		}

		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// Login exchanges credentials for a token. It is the only call besides
// Register that works without an auth token configured.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var body AuthResult
	req := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", req, &body); err != nil {
		return AuthResult{}, err
	}

	return body, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	var body AuthResult
	req := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/register", req, &body); err != nil {
		return AuthResult{}, err
	}

	return body, nil
}

func (c *Client) Channels(ctx context.Context) ([]types.Channel, error) {
	var body struct {
		Channels []types.Channel `json:"channels"`
	}
	if err := c.do(ctx, http.MethodGet, "/channels", nil, &body); err != nil {
		return nil, err
	}

	return body.Channels, nil
}

func (c *Client) CreateChannel(ctx context.Context, name string) (types.Channel, error) {
	var body struct {
		Channel types.Channel `json:"channel"`
	}
	req := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/channels", req, &body); err != nil {
		return types.Channel{}, err
	}

	return body.Channel, nil
}

func (c *Client) DeleteChannel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+id, nil, nil)
}

func (c *Client) Users(ctx context.Context) ([]types.User, error) {
	var body struct {
		Users []types.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, &body); err != nil {
		return nil, err
	}

	return body.Users, nil
}

func (c *Client) ChannelMessages(ctx context.Context, channelId string) ([]types.Message, error) {
	var body struct {
		Messages []types.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages/channel/"+channelId, nil, &body); err != nil {
		return nil, err
	}

	return body.Messages, nil
}

func (c *Client) DirectMessages(ctx context.Context, userId string) ([]types.Message, error) {
	var body struct {
		Messages []types.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages/direct/"+userId, nil, &body); err != nil {
		return nil, err
	}

	return body.Messages, nil
}

func (c *Client) EditMessage(ctx context.Context, messageId, content string) (types.Message, error) {
	var body struct {
		Message types.Message `json:"message"`
	}
	req := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPut, "/messages/"+messageId, req, &body); err != nil {
		return types.Message{}, err
	}

	return body.Message, nil
}

func (c *Client) DeleteMessage(ctx context.Context, messageId string) (types.Message, error) {
	var body struct {
		Message types.Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/messages/"+messageId, nil, &body); err != nil {
		return types.Message{}, err
	}

	return body.Message, nil
}

func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (ImageUpload, error) {
	var body ImageUpload
	if err := c.upload(ctx, "/upload/image", "image", filename, r, &body); err != nil {
		return ImageUpload{}, err
	}

	return body, nil
}

func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (FileUpload, error) {
	var body FileUpload
	if err := c.upload(ctx, "/upload/files/upload", "file", filename, r, &body); err != nil {
		return FileUpload{}, err
	}

	return body, nil
}

func (c *Client) Profile(ctx context.Context, userId string) (types.User, error) {
	var body struct {
		User types.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile/"+userId, nil, &body); err != nil {
		return types.User{}, err
	}

	return body.User, nil
}

func (c *Client) CurrentProfile(ctx context.Context) (types.User, error) {
	var body struct {
		User types.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile/me", nil, &body); err != nil {
		return types.User{}, err
	}

	return body.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, userId string, params ProfileParams) (types.User, error) {
	var body struct {
		User types.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/profile/"+userId, params, &body); err != nil {
		return types.User{}, err
	}

	return body.User, nil
}

func (c *Client) UploadProfilePicture(ctx context.Context, filename string, r io.Reader) (ProfilePictureUpload, error) {
	var body ProfilePictureUpload
	if err := c.upload(ctx, "/profile/upload-picture", "profilePicture", filename, r, &body); err != nil {
		return ProfilePictureUpload{}, err
	}

	return body, nil
}

func (c *Client) upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return err
	}

	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("copying upload body: %w", err)
	}

	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.send(req, out)
}
