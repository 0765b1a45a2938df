package devserver

import (
	"errors"
	"testing"

	"github.com/gofrs/uuid"
)

func TestStore_ToggleLike(t *testing.T) {
	tests := []struct {
		name      string
		likedBy   []string
		author    string
		liked     bool
		wantCount int
	}{
		{name: "Add", author: "alice", liked: false, wantCount: 1},
		{name: "Remove", likedBy: []string{"alice"}, author: "alice", liked: true, wantCount: 0},
		{name: "StaleUnliked", likedBy: []string{"alice"}, author: "alice", liked: false, wantCount: 0},
		{name: "StaleLiked", likedBy: []string{"bob"}, author: "alice", liked: true, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := NewStore()
			db.AddPosts("7")
			for _, a := range tt.likedBy {
				if _, err := db.ToggleLike("7", a, false); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			got, err := db.ToggleLike("7", tt.author, tt.liked)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantCount {
				t.Errorf("want %d likes, got %d", tt.wantCount, got)
			}

			p, _ := db.Post("7")
			if p.LikesCounter != len(p.LikesAuthors) {
				t.Errorf("want counter %d to match authors %v", p.LikesCounter, p.LikesAuthors)
			}
		})
	}
}

func TestStore_UnknownPost(t *testing.T) {
	db := NewStore()

	if _, err := db.AddComment("1", "alice", "hi"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("AddComment: want %v, got %v", ErrPostNotFound, err)
	}
	if _, err := db.ToggleLike("1", "alice", false); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("ToggleLike: want %v, got %v", ErrPostNotFound, err)
	}
	if err := db.DeletePost("1"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("DeletePost: want %v, got %v", ErrPostNotFound, err)
	}
}

func TestStore_PostReturnsCopy(t *testing.T) {
	db := NewStore()
	db.AddPosts("42")
	if _, err := db.AddComment("42", "alice", "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := db.Post("42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Comments[0].Text = "changed"

	again, _ := db.Post("42")
	if again.Comments[0].Text != "first" {
		t.Errorf("want stored comment %q, got %q", "first", again.Comments[0].Text)
	}
	if again.Comments[0].ID == uuid.Nil {
		t.Error("want comment ID to be set")
	}
}

func TestStore_AddPostsKeepsExisting(t *testing.T) {
	db := NewStore()
	db.AddPosts("7")
	db.ToggleLike("7", "alice", false)
	db.AddPosts("7", "8")

	p, _ := db.Post("7")
	if p.LikesCounter != 1 {
		t.Errorf("want 1 like, got %d", p.LikesCounter)
	}
	if _, err := db.Post("8"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
