package controller

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"blogfront/pkg/page"
)

const commentClass = "cmt-section-din"

func (c *Controller) onCommentSubmit(e *page.Event) {
	e.PreventDefault()
	e.StopImmediatePropagation()

	form := e.CurrentTarget
	postID := form.AttrOr("data-post-id", "")
	username := form.AttrOr("data-username", "")

	var text string
	if fields := c.page.SerializeForm(form); len(fields) > 0 {
		text = fields[0].Value
	}
	log.Debugf("[commentHandler][post:%s] submitted by %s", postID, username)

	c.dispatch(request{
		action:   ActionComment,
		postID:   postID,
		username: username,
		send: func(ctx context.Context) error {
			_, err := c.svc.NewComment(ctx, postID, text)
			return err
		},
		onSuccess: func() {
			c.appendComment(postID, username, text)
		},
	})

	// The form is cleared whatever the service answers.
	clearInput(c.page, form)
}

// appendComment shows the comment area of the post and adds the comment to it.
func (c *Controller) appendComment(postID, username, text string) {
	area := c.commentArea(postID)
	if area.Length() == 0 {
		log.Debugf("[commentHandler][post:%s] comment area is gone, nothing to update", postID)
		return
	}

	area.RemoveAttr("hidden")
	area.AppendNodes(page.Element("p", []html.Attribute{{Key: "class", Val: commentClass}},
		page.Text(username+": "),
		page.Element("i", nil, page.Text(text)),
	))
}

// commentArea returns the div children of the element with id "<postID>-cmt-area".
func (c *Controller) commentArea(postID string) *goquery.Selection {
	id := postID + "-cmt-area"
	return c.page.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).ChildrenFiltered("div")
}

// clearInput empties every control of the form and takes focus away from it.
func clearInput(p *page.Page, form *goquery.Selection) {
	controls := form.Find("input, textarea, select, button")
	p.SetValue(controls, "")
	p.Blur(controls)
}
