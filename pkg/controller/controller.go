// Package controller wires page events to the blog service: comment and
// profile picture forms, like and delete buttons. The page is changed only
// after the service has acknowledged the action.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"blogfront/pkg/blog"
	"blogfront/pkg/models"
	"blogfront/pkg/page"
)

const defaultTimeout = 5 * time.Second

// Service is the remote blog service. *blog.Client implements it.
type Service interface {
	NewComment(ctx context.Context, postID, comment string) (models.CommentAck, error)
	UploadProfilePic(ctx context.Context, pic models.ProfilePicture) error
	Like(ctx context.Context, postID string, liked bool) (models.LikeResult, error)
	DeletePost(ctx context.Context, postID string) (models.DeleteAck, error)
}

type Action string

const (
	ActionComment Action = "comment"
	ActionUpload  Action = "upload"
	ActionLike    Action = "like"
	ActionDelete  Action = "delete"
)

// Bindings holds the selectors of the elements each action is bound to.
// Empty fields fall back to the defaults.
type Bindings struct {
	CommentForm    string
	ProfilePicForm string
	LikeButton     string
	DeleteButton   string
}

func DefaultBindings() Bindings {
	return Bindings{
		CommentForm:    ".comment-form",
		ProfilePicForm: ".profile-pic-form",
		LikeButton:     ".like-button",
		DeleteButton:   ".delete-button",
	}
}

func (b Bindings) withDefaults() Bindings {
	d := DefaultBindings()
	if b.CommentForm == "" {
		b.CommentForm = d.CommentForm
	}
	if b.ProfilePicForm == "" {
		b.ProfilePicForm = d.ProfilePicForm
	}
	if b.LikeButton == "" {
		b.LikeButton = d.LikeButton
	}
	if b.DeleteButton == "" {
		b.DeleteButton = d.DeleteButton
	}
	return b
}

// Outcome describes one finished action.
type Outcome struct {
	Action    Action
	PostID    string
	Username  string
	RequestID string
	Err       error
	// Declined is set when the user refused the delete confirmation. No
	// request was sent.
	Declined bool
	Duration time.Duration
}

type Observer interface {
	Observe(Outcome)
}

type ObserverFunc func(Outcome)

func (f ObserverFunc) Observe(o Outcome) {
	f(o)
}

type Controller struct {
	page    *page.Page
	loop    *page.Loop
	svc     Service
	confirm Confirmer
	obs     Observer
	timeout time.Duration

	wg sync.WaitGroup

	// Touched on the loop only.
	root     *goquery.Selection
	bindings Bindings
	inflight map[inflightKey]struct{}
}

type inflightKey struct {
	action Action
	postID string
}

type Option func(*Controller)

func WithConfirmer(c Confirmer) Option {
	return func(ctl *Controller) {
		ctl.confirm = c
	}
}

func WithObserver(o Observer) Option {
	return func(ctl *Controller) {
		ctl.obs = o
	}
}

// WithTimeout bounds every request sent to the service.
func WithTimeout(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.timeout = d
	}
}

// New returns a controller for p. Every page access, including Setup and
// event dispatch, has to run on loop.
func New(p *page.Page, loop *page.Loop, svc Service, opts ...Option) *Controller {
	c := Controller{
		page:     p,
		loop:     loop,
		svc:      svc,
		timeout:  defaultTimeout,
		bindings: DefaultBindings(),
		inflight: make(map[inflightKey]struct{}),
	}
	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// Setup binds the handlers to the matching elements under root and indexes
// the post containers. Calling it again binds elements added since, without
// binding any element twice.
func (c *Controller) Setup(root *goquery.Selection, b Bindings) {
	c.root = root
	c.bindings = b.withDefaults()
	posts := c.page.IndexPosts()

	n := c.page.On(root.Find(c.bindings.CommentForm), page.EventSubmit, "controller.comment", c.onCommentSubmit)
	n += c.page.On(root.Find(c.bindings.ProfilePicForm), page.EventSubmit, "controller.upload", c.onProfilePicSubmit)
	n += c.page.On(root.Find(c.bindings.LikeButton), page.EventClick, "controller.like", c.onLikeClick)
	n += c.page.On(root.Find(c.bindings.DeleteButton), page.EventClick, "controller.delete", c.onDeleteClick)

	log.Infof("[Setup] %d handlers bound, %d posts indexed", n, posts)
}

// Wait blocks until the result of every dispatched request has been applied
// to the page. It must not be called from the loop.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// request is one call to the service. send runs off the loop; onSuccess runs
// on the loop after send returned nil.
type request struct {
	action    Action
	postID    string
	username  string
	send      func(ctx context.Context) error
	onSuccess func()
	// guarded requests block other guarded requests with the same key until they finish.
	guarded bool
}

// busy reports whether a guarded request for the same action and post is in flight.
func (c *Controller) busy(action Action, postID string) bool {
	_, ok := c.inflight[inflightKey{action, postID}]
	return ok
}

// dispatch must run on the loop.
func (c *Controller) dispatch(r request) {
	reqID := newRequestID()
	key := inflightKey{r.action, r.postID}
	if r.guarded {
		c.inflight[key] = struct{}{}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		start := time.Now()
		ctx, cancel := context.WithTimeout(blog.WithRequestID(context.Background(), reqID), c.timeout)
		err := r.send(ctx)
		cancel()

		out := Outcome{
			Action:    r.action,
			PostID:    r.postID,
			Username:  r.username,
			RequestID: reqID,
			Err:       err,
			Duration:  time.Since(start),
		}

		perr := c.loop.Do(func() {
			if r.guarded {
				delete(c.inflight, key)
			}
			if err != nil {
				log.Errorf("[%sHandler][post:%s][%s] request failed: %v", r.action, r.postID, blog.Shorten(reqID), err)
				return
			}
			if r.onSuccess != nil {
				r.onSuccess()
			}
		})
		if perr != nil {
			log.Warnf("[%sHandler][post:%s][%s] page is gone, result dropped: %v", r.action, r.postID, blog.Shorten(reqID), perr)
		}

		c.observe(out)
	}()
}

func (c *Controller) observe(o Outcome) {
	if c.obs != nil {
		c.obs.Observe(o)
	}
}

// postElements returns the elements under root matching selector whose
// data-post-id is postID.
func (c *Controller) postElements(selector, postID string) *goquery.Selection {
	root := c.root
	if root == nil {
		root = c.page.Root()
	}
	return root.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("data-post-id", "") == postID
	})
}

func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		log.Errorf("[dispatch] failed to generate request ID: %v", err)
		return ""
	}
	return id.String()
}
