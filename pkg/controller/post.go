package controller

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"blogfront/pkg/models"
	"blogfront/pkg/page"
)

const (
	likedClass    = "active"
	heartClass    = "glyphicon-heart"
	emptyClass    = "glyphicon-heart-empty"
	likesSelector = ".post-likes"
)

func (c *Controller) onLikeClick(e *page.Event) {
	e.PreventDefault()

	btn := e.CurrentTarget
	postID := btn.AttrOr("data-post-id", "")
	liked := btn.HasClass(likedClass)
	log.Debugf("[likeHandler][post:%s] click, liked:%v", postID, liked)

	if c.busy(ActionLike, postID) {
		log.Debugf("[likeHandler][post:%s] like already in flight, click ignored", postID)
		return
	}

	var count int
	c.dispatch(request{
		action:  ActionLike,
		postID:  postID,
		guarded: true,
		send: func(ctx context.Context) error {
			res, err := c.svc.Like(ctx, postID, liked)
			count = res.LikesCounter
			return err
		},
		onSuccess: func() {
			c.applyLike(postID, !liked, count)
		},
	})
}

// applyLike shows the post as liked or not and sets its likes counter.
func (c *Controller) applyLike(postID string, liked bool, count int) {
	btn := c.postElements(c.bindings.LikeButton, postID)
	if btn.Length() == 0 {
		log.Debugf("[likeHandler][post:%s] like button is gone, nothing to update", postID)
		return
	}

	icon := btn.Find("span")
	if liked {
		btn.AddClass(likedClass)
		icon.AddClass(heartClass).RemoveClass(emptyClass)
	} else {
		btn.RemoveClass(likedClass)
		icon.AddClass(emptyClass).RemoveClass(heartClass)
	}

	counter := c.page.PostContainer(postID).Find(likesSelector)
	if counter.Length() == 0 {
		log.Debugf("[likeHandler][post:%s] no likes counter on the page", postID)
		return
	}
	counter.SetText(strconv.Itoa(count) + " likes")
}

func (c *Controller) onDeleteClick(e *page.Event) {
	e.PreventDefault()

	postID := e.CurrentTarget.AttrOr("data-post-id", "")
	log.Debugf("[deleteHandler][post:%s] click", postID)

	if c.busy(ActionDelete, postID) {
		log.Debugf("[deleteHandler][post:%s] delete already in flight, click ignored", postID)
		return
	}

	if !confirmDelete(c.confirm) {
		log.Debugf("[deleteHandler][post:%s] delete declined", postID)
		c.observe(Outcome{Action: ActionDelete, PostID: postID, Declined: true})
		return
	}
	log.Debugf("[deleteHandler][post:%s] delete confirmed", postID)

	c.dispatch(request{
		action:  ActionDelete,
		postID:  postID,
		guarded: true,
		send: func(ctx context.Context) error {
			_, err := c.svc.DeletePost(ctx, postID)
			return err
		},
		onSuccess: func() {
			if !c.page.RemovePost(postID) {
				log.Debugf("[deleteHandler][post:%s] post is not on the page, nothing to remove", postID)
				return
			}
			log.Infof("[deleteHandler][post:%s] post removed", postID)
		},
	})
}

func (c *Controller) onProfilePicSubmit(e *page.Event) {
	e.PreventDefault()
	e.StopImmediatePropagation()

	form := e.CurrentTarget
	pic := models.ProfilePicture{Username: form.AttrOr("data-username", "")}
	if files := c.page.Files(form.Find(`input[type="file"]`).First()); len(files) > 0 {
		pic.FileName = files[0].Name
		pic.ContentType = files[0].ContentType
		pic.Data = files[0].Data
	}
	log.Debugf("[uploadHandler] %q (%d bytes) for %s", pic.FileName, len(pic.Data), pic.Username)

	c.dispatch(request{
		action:   ActionUpload,
		username: pic.Username,
		send: func(ctx context.Context) error {
			return c.svc.UploadProfilePic(ctx, pic)
		},
		onSuccess: func() {
			log.Infof("[uploadHandler] profile picture uploaded for %s", pic.Username)
		},
	})
}
