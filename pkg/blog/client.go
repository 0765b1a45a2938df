// Package blog is a client for the remote blog service endpoints used by the
// page: comments, likes, post deletion and profile picture upload.
package blog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"blogfront/pkg/models"
)

const (
	NewCommentPath = "/blog/newcomment"
	LikePath       = "/blog/like"
	DeletePostPath = "/blog/deletepost"
	UploadPicPath  = "/uploadprofilepic"

	RequestIDHeader = "X-Request-Id"

	defaultTimeout = 5 * time.Second
)

type Client struct {
	base string
	hc   *http.Client
}

type Option func(*Client)

// WithTimeout sets the request timeout. The HTTP client is copied first so a
// client passed with WithHTTPClient is left as it was.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.hc
		hc.Timeout = d
		c.hc = &hc
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// NewComment adds a comment to the post.
func (c *Client) NewComment(ctx context.Context, postID, comment string) (models.CommentAck, error) {
	var ack models.CommentAck
	form := url.Values{"post_id": {postID}, "comment": {comment}}
	err := c.postForm(ctx, NewCommentPath, form, &ack)

	return ack, err
}

// Like sends the like state of the post as it was before the click. The
// service flips it and answers with the new number of likes.
func (c *Client) Like(ctx context.Context, postID string, liked bool) (models.LikeResult, error) {
	var res models.LikeResult
	form := url.Values{"post_id": {postID}, "liked": {strconv.FormatBool(liked)}}
	err := c.postForm(ctx, LikePath, form, &res)

	return res, err
}

func (c *Client) DeletePost(ctx context.Context, postID string) (models.DeleteAck, error) {
	var ack models.DeleteAck
	err := c.postForm(ctx, DeletePostPath, url.Values{"post_id": {postID}}, &ack)

	return ack, err
}

// UploadProfilePic sends the picture as multipart form data. A picture without
// data is still sent as an empty file part.
func (c *Client) UploadProfilePic(ctx context.Context, pic models.ProfilePicture) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	contentType := pic.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, pic.FileName))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("error creating file part: %w", err)
	}
	if _, err := part.Write(pic.Data); err != nil {
		return fmt.Errorf("error writing file part: %w", err)
	}
	if err := mw.WriteField("username", pic.Username); err != nil {
		return fmt.Errorf("error writing username field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("error closing multipart body: %w", err)
	}

	resp, reqID, err := c.do(ctx, UploadPicPath, mw.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Endpoint: UploadPicPath, Code: resp.StatusCode, RequestID: reqID}
	}
	log.Debugf("[UploadProfilePic][%s] uploaded %d bytes for %s", Shorten(reqID), len(pic.Data), pic.Username)

	return nil
}

// postForm sends a form-encoded POST and decodes the JSON answer into out.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	resp, reqID, err := c.do(ctx, path, "application/x-www-form-urlencoded; charset=UTF-8", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Endpoint: path, Code: resp.StatusCode, RequestID: reqID}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response from %s: %w", path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return fmt.Errorf("%w: %s returned empty body (request %s)", ErrBadResponse, path, reqID)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %s: %v (request %s)", ErrBadResponse, path, err, reqID)
	}
	log.Debugf("[postForm][%s] %s answered %d", Shorten(reqID), path, resp.StatusCode)

	return nil
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, string, error) {
	reqID := GetRequestID(ctx)
	if reqID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, "", fmt.Errorf("error generating request ID: %w", err)
		}
		reqID = id.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return nil, reqID, fmt.Errorf("error creating request to %s: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, reqID, fmt.Errorf("error calling %s: %w", path, err)
	}

	return resp, reqID, nil
}

type ctxKeyRequestID struct{}

var RequestIDKey = ctxKeyRequestID{}

// WithRequestID makes requests sent with ctx carry id in the X-Request-Id header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request ID from the context.
// It returns the request ID as a string if present, otherwise returns an empty string.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// Shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func Shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
