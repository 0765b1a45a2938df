package devserver

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

var ErrPostNotFound = errors.New("post not found")

type Comment struct {
	ID        uuid.UUID
	Author    string
	Text      string
	Published time.Time
}

type Post struct {
	ID           string
	LikesCounter int
	LikesAuthors []string
	Comments     []Comment
}

// Store keeps posts, comments, likes and profile pictures in memory.
type Store struct {
	mu       sync.Mutex
	posts    map[string]*Post
	pictures map[string][]byte
}

func NewStore() *Store {
	db := Store{
		posts:    make(map[string]*Post),
		pictures: make(map[string][]byte),
	}

	return &db
}

// AddPosts creates empty posts with the given IDs. Existing posts are kept.
func (db *Store) AddPosts(ids ...string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, id := range ids {
		if _, ok := db.posts[id]; !ok {
			db.posts[id] = &Post{ID: id}
		}
	}
}

// Post returns a copy of the post.
func (db *Store) Post(id string) (Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[id]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	cp := *p
	cp.LikesAuthors = slices.Clone(p.LikesAuthors)
	cp.Comments = slices.Clone(p.Comments)

	return cp, nil
}

func (db *Store) AddComment(postID, author, text string) (Comment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return Comment{}, ErrPostNotFound
	}
	id, err := uuid.NewV4()
	if err != nil {
		return Comment{}, err
	}
	c := Comment{ID: id, Author: author, Text: text, Published: time.Now().UTC()}
	p.Comments = append(p.Comments, c)

	return c, nil
}

// ToggleLike flips the like of author on the post. liked is the state the
// page showed before the click: false adds a like unless author already
// liked the post, anything else removes it.
func (db *Store) ToggleLike(postID, author string, liked bool) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return 0, ErrPostNotFound
	}

	i := slices.Index(p.LikesAuthors, author)
	switch {
	case !liked && i < 0:
		p.LikesAuthors = append(p.LikesAuthors, author)
		p.LikesCounter++
	case i >= 0:
		p.LikesAuthors = slices.Delete(p.LikesAuthors, i, i+1)
		p.LikesCounter--
	}

	return p.LikesCounter, nil
}

func (db *Store) DeletePost(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(db.posts, id)

	return nil
}

func (db *Store) SetPicture(username string, data []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.pictures[username] = data
}

func (db *Store) Picture(username string) ([]byte, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	b, ok := db.pictures[username]
	return b, ok
}
