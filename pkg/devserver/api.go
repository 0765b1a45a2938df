// Package devserver is an in-memory stand-in for the remote blog service.
// It answers the endpoints the page calls the way the real service does and
// is meant for local runs and tests only.
package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"blogfront/pkg/blog"
	"blogfront/pkg/models"
)

const (
	// UsernameHeader identifies the acting user. There is no authentication.
	UsernameHeader  = "X-Username"
	defaultUsername = "anonymous"

	maxUploadSize = 10 << 20
)

type API struct {
	r  *mux.Router
	db *Store
}

func New(db *Store) *API {
	api := API{r: mux.NewRouter(), db: db}
	api.endpoints()

	return &api
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestMiddleware)
	api.r.Use(api.loggingMiddleware)

	api.r.HandleFunc(blog.NewCommentPath, api.newCommentHandler).Methods(http.MethodPost)
	api.r.HandleFunc(blog.LikePath, api.likeHandler).Methods(http.MethodPost)
	api.r.HandleFunc(blog.DeletePostPath, api.deletePostHandler).Methods(http.MethodPost)
	api.r.HandleFunc(blog.UploadPicPath, api.uploadPicHandler).Methods(http.MethodPost)
}

func (api *API) newCommentHandler(w http.ResponseWriter, r *http.Request) {
	sID := requestTag(r)

	postID := r.PostFormValue("post_id")
	comment := r.PostFormValue("comment")

	// An empty comment is accepted and ignored.
	if comment == "" {
		log.Debugf("[newCommentHandler][%s] empty comment for post %s", sID, postID)
		return
	}

	_, err := api.db.AddComment(postID, username(r), comment)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "Post not found", http.StatusNotFound)
			log.Debugf("[newCommentHandler][%s] post %s: %v", sID, postID, err)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[newCommentHandler][%s] AddComment() returned error: %v", sID, err)
		return
	}

	writeJSON(w, sID, models.CommentAck{Comment: comment})
}

func (api *API) likeHandler(w http.ResponseWriter, r *http.Request) {
	sID := requestTag(r)

	postID := r.PostFormValue("post_id")
	liked, err := strconv.ParseBool(r.PostFormValue("liked"))
	if err != nil {
		http.Error(w, "Invalid liked parameter", http.StatusBadRequest)
		log.Debugf("[likeHandler][%s] failed to parse liked: %v", sID, err)
		return
	}

	count, err := api.db.ToggleLike(postID, username(r), liked)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "Post not found", http.StatusNotFound)
			log.Debugf("[likeHandler][%s] post %s: %v", sID, postID, err)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[likeHandler][%s] ToggleLike() returned error: %v", sID, err)
		return
	}

	writeJSON(w, sID, models.LikeResult{LikesCounter: count})
}

func (api *API) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	sID := requestTag(r)

	postID := r.PostFormValue("post_id")
	if err := api.db.DeletePost(postID); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "Post not found", http.StatusNotFound)
			log.Debugf("[deletePostHandler][%s] post %s: %v", sID, postID, err)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[deletePostHandler][%s] DeletePost() returned error: %v", sID, err)
		return
	}

	writeJSON(w, sID, models.DeleteAck{Deleted: postID})
}

func (api *API) uploadPicHandler(w http.ResponseWriter, r *http.Request) {
	sID := requestTag(r)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Bad Request: invalid multipart form", http.StatusBadRequest)
		log.Debugf("[uploadPicHandler][%s] failed to parse form: %v", sID, err)
		return
	}
	name := r.FormValue("username")
	if name == "" {
		http.Error(w, "Bad Request: missing username", http.StatusBadRequest)
		log.Debugf("[uploadPicHandler][%s] missing username", sID)
		return
	}

	var data []byte
	f, _, err := r.FormFile("file")
	switch {
	case err == nil:
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			log.Errorf("[uploadPicHandler][%s] failed to read file: %v", sID, err)
			return
		}
	case errors.Is(err, http.ErrMissingFile):
		// Nothing was selected on the page.
	default:
		http.Error(w, "Bad Request", http.StatusBadRequest)
		log.Debugf("[uploadPicHandler][%s] failed to open file: %v", sID, err)
		return
	}

	api.db.SetPicture(name, data)
	log.Infof("[uploadPicHandler][%s] stored %d bytes for %s", sID, len(data), name)

	writeJSON(w, sID, models.UploadAck{Username: name, Size: len(data)})
}

func writeJSON(w http.ResponseWriter, sID string, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[writeJSON][%s] failed to encode response: %v", sID, err)
	}
}

func username(r *http.Request) string {
	if u := r.Header.Get(UsernameHeader); u != "" {
		return u
	}
	return defaultUsername
}
