// Package page keeps an HTML document in memory and lets callers query,
// mutate and dispatch events on it the way a browser page would.
//
// A Page is not safe for concurrent use. Run every access through a Loop.
package page

import (
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PostContainerAttr marks the element that holds a whole post. Its value is the post ID.
const PostContainerAttr = "data-post-container"

var ErrNoDocument = errors.New("page: empty document")

type Page struct {
	doc *goquery.Document

	listeners map[*html.Node]map[string][]listener
	files     map[*html.Node][]File
	focused   *html.Node
	posts     map[string]*html.Node
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	if doc.Length() == 0 {
		return nil, ErrNoDocument
	}

	p := Page{
		doc:       doc,
		listeners: make(map[*html.Node]map[string][]listener),
		files:     make(map[*html.Node][]File),
		posts:     make(map[string]*html.Node),
	}

	return &p, nil
}

func ParseString(s string) (*Page, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document selection.
func (p *Page) Root() *goquery.Selection {
	return p.doc.Selection
}

func (p *Page) Find(selector string) *goquery.Selection {
	return p.doc.Find(selector)
}

// HTML renders the current state of the document.
func (p *Page) HTML() (string, error) {
	return p.doc.Html()
}

// Attached reports whether the first element of sel is still part of the document.
func (p *Page) Attached(sel *goquery.Selection) bool {
	if sel == nil || sel.Length() == 0 {
		return false
	}
	root := p.doc.Get(0)
	for n := sel.Get(0); n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// IndexPosts rebuilds the post ID to container mapping from every element
// carrying PostContainerAttr and returns the number of indexed posts.
func (p *Page) IndexPosts() int {
	p.posts = make(map[string]*html.Node)
	p.doc.Find("[" + PostContainerAttr + "]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr(PostContainerAttr)
		if id == "" {
			return
		}
		p.posts[id] = s.Get(0)
	})

	return len(p.posts)
}

// PostIDs returns the indexed post IDs in sorted order.
func (p *Page) PostIDs() []string {
	ids := make([]string, 0, len(p.posts))
	for id := range p.posts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// PostContainer returns the container of the post, or an empty selection
// when the post is unknown or no longer on the page.
func (p *Page) PostContainer(postID string) *goquery.Selection {
	n, ok := p.posts[postID]
	if !ok {
		return p.doc.FindNodes()
	}
	sel := p.doc.FindNodes(n)
	if !p.Attached(sel) {
		delete(p.posts, postID)
		return p.doc.FindNodes()
	}

	return sel
}

// RemovePost detaches the post container from the document. It returns
// false when there was nothing to remove.
func (p *Page) RemovePost(postID string) bool {
	sel := p.PostContainer(postID)
	if sel.Length() == 0 {
		return false
	}

	p.forget(sel.Get(0))
	sel.Remove()
	delete(p.posts, postID)

	return true
}

// forget drops listeners, files and focus held by n and its descendants.
func (p *Page) forget(n *html.Node) {
	delete(p.listeners, n)
	delete(p.files, n)
	if p.focused == n {
		p.focused = nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.forget(c)
	}
}

// Element builds a detached element node. Children are appended in order.
func Element(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}

	return n
}

// Text builds a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
