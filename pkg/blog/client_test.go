package blog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/h2non/gock"
	log "github.com/sirupsen/logrus"

	"blogfront/pkg/models"
)

const testBaseURL = "http://blog.test"

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

func TestClient_NewComment(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).
		Post(NewCommentPath).
		MatchHeader("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8").
		MatchHeader(RequestIDHeader, "req-1").
		BodyString(`comment=hello\+world&post_id=42`).
		Reply(http.StatusOK).
		JSON(map[string]string{"comment": "hello world"})

	c := New(testBaseURL)
	ctx := WithRequestID(context.Background(), "req-1")
	ack, err := c.NewComment(ctx, "42", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack.Comment != "hello world" {
		t.Errorf("want comment %q, got %q", "hello world", ack.Comment)
	}
	if !gock.IsDone() {
		t.Error("want all mocks to be consumed")
	}
}

func TestClient_NewCommentEmptyBody(t *testing.T) {
	defer gock.Off()

	// The service answers an empty comment with 200 and no body.
	gock.New(testBaseURL).Post(NewCommentPath).Reply(http.StatusOK)

	_, err := New(testBaseURL).NewComment(context.Background(), "42", "")
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("want ErrBadResponse, got %v", err)
	}
}

func TestClient_Like(t *testing.T) {
	tests := []struct {
		name  string
		liked bool
		body  string
		count int
	}{
		{"Not liked yet", false, `liked=false&post_id=7`, 11},
		{"Already liked", true, `liked=true&post_id=7`, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()

			gock.New(testBaseURL).
				Post(LikePath).
				BodyString(tt.body).
				Reply(http.StatusOK).
				JSON(map[string]int{"likes_counter": tt.count})

			res, err := New(testBaseURL).Like(context.Background(), "7", tt.liked)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.LikesCounter != tt.count {
				t.Errorf("want likes_counter %d, got %d", tt.count, res.LikesCounter)
			}
		})
	}
}

func TestClient_DeletePostStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		notFound bool
	}{
		{"Not found", http.StatusNotFound, true},
		{"Server error", http.StatusInternalServerError, false},
		{"Forbidden", http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()

			gock.New(testBaseURL).Post(DeletePostPath).Reply(tt.code)

			_, err := New(testBaseURL).DeletePost(context.Background(), "3")

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("want *StatusError, got %v", err)
			}
			if statusErr.Code != tt.code {
				t.Errorf("want status %d, got %d", tt.code, statusErr.Code)
			}
			if statusErr.RequestID == "" {
				t.Error("want generated request ID in error")
			}
			if got := errors.Is(err, ErrNotFound); got != tt.notFound {
				t.Errorf("want errors.Is(err, ErrNotFound) %v, got %v", tt.notFound, got)
			}
		})
	}
}

func TestClient_DeletePost(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).
		Post(DeletePostPath).
		BodyString(`post_id=3`).
		Reply(http.StatusOK).
		JSON(map[string]string{"deleted": "3"})

	ack, err := New(testBaseURL).DeletePost(context.Background(), "3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack.Deleted != "3" {
		t.Errorf("want deleted %q, got %q", "3", ack.Deleted)
	}
}

func TestClient_TransportError(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).Post(LikePath).ReplyError(errors.New("connection refused"))

	_, err := New(testBaseURL).Like(context.Background(), "7", false)
	if err == nil {
		t.Fatal("want transport error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("want transport error, got status error %v", statusErr)
	}
}

func TestClient_UploadProfilePic(t *testing.T) {
	defer gock.Off()

	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0x0d, 0x0a, 0xff}

	gock.New(testBaseURL).
		Post(UploadPicPath).
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				return false, err
			}
			if req.FormValue("username") != "alice" {
				return false, nil
			}
			f, hdr, err := req.FormFile("file")
			if err != nil {
				return false, err
			}
			defer f.Close()
			got, err := io.ReadAll(f)
			if err != nil {
				return false, err
			}
			return hdr.Filename == "me.png" && string(got) == string(data), nil
		}).
		Reply(http.StatusOK)

	err := New(testBaseURL).UploadProfilePic(context.Background(), models.ProfilePicture{
		Username:    "alice",
		FileName:    "me.png",
		ContentType: "image/png",
		Data:        data,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gock.IsDone() {
		t.Error("want upload mock to be matched")
	}
}

func TestClient_UploadProfilePicWithoutFile(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).
		Post(UploadPicPath).
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				return false, err
			}
			// A part without a filename is parsed as a plain value.
			file, ok := req.MultipartForm.Value["file"]
			if !ok || len(file) != 1 || file[0] != "" {
				return false, nil
			}
			return req.FormValue("username") == "bob", nil
		}).
		Reply(http.StatusOK)

	err := New(testBaseURL).UploadProfilePic(context.Background(), models.ProfilePicture{Username: "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gock.IsDone() {
		t.Error("want upload mock to be matched")
	}
}

func TestWithTimeout_KeepsCallerClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	c := New(testBaseURL, WithHTTPClient(shared), WithTimeout(time.Second))

	if shared.Timeout != time.Minute {
		t.Errorf("want shared client timeout %v, got %v", time.Minute, shared.Timeout)
	}
	if c.hc.Timeout != time.Second {
		t.Errorf("want client timeout %v, got %v", time.Second, c.hc.Timeout)
	}
}

func TestShorten(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abcdef", "abcdef"},
		{"abcdefg", "abcdef..."},
	}

	for _, tt := range tests {
		if got := Shorten(tt.in); got != tt.want {
			t.Errorf("Shorten(%q): want %q, got %q", tt.in, tt.want, got)
		}
	}
}
