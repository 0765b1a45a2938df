package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"blogfront/pkg/controller"
	"blogfront/pkg/page"
)

const usage = `commands:
  comment <post_id> <text>   submit a comment
  like <post_id>             click the like button
  delete <post_id>           click the delete button
  upload <path>              upload a profile picture
  html                       print the page
  quit`

var errQuit = errors.New("quit")

// shell turns typed commands into page events. Each command waits for the
// requests it caused before the next one is read.
type shell struct {
	page *page.Page
	loop *page.Loop
	ctl  *controller.Controller
	in   *bufio.Reader
	out  io.Writer
}

func (sh *shell) run() {
	fmt.Fprintln(sh.out, usage)
	for {
		fmt.Fprint(sh.out, "> ")
		line, err := sh.in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if cmdErr := sh.exec(line); errors.Is(cmdErr, errQuit) {
				return
			} else if cmdErr != nil {
				fmt.Fprintln(sh.out, cmdErr)
			}
			sh.ctl.Wait()
		}
		if err != nil {
			return
		}
	}
}

func (sh *shell) exec(line string) error {
	args := strings.SplitN(line, " ", 3)
	switch args[0] {
	case "quit", "exit":
		return errQuit
	case "html":
		return sh.printHTML()
	case "comment":
		if len(args) < 3 {
			return errors.New("usage: comment <post_id> <text>")
		}
		return sh.comment(args[1], args[2])
	case "like":
		if len(args) < 2 {
			return errors.New("usage: like <post_id>")
		}
		return sh.click(controller.DefaultBindings().LikeButton, args[1])
	case "delete":
		if len(args) < 2 {
			return errors.New("usage: delete <post_id>")
		}
		return sh.click(controller.DefaultBindings().DeleteButton, args[1])
	case "upload":
		if len(args) < 2 {
			return errors.New("usage: upload <path>")
		}
		return sh.upload(strings.Join(args[1:], " "))
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func (sh *shell) printHTML() error {
	var (
		s   string
		err error
	)
	if doErr := sh.loop.Do(func() { s, err = sh.page.HTML() }); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, s)

	return nil
}

func (sh *shell) comment(postID, text string) error {
	var err error
	doErr := sh.loop.Do(func() {
		form := byPost(sh.page.Find(controller.DefaultBindings().CommentForm), postID)
		if form.Length() == 0 {
			err = fmt.Errorf("post %s has no comment form", postID)
			return
		}
		sh.page.SetValue(form.Find(`input[type="text"], textarea`).First(), text)
		sh.page.Dispatch(form, page.EventSubmit)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (sh *shell) click(selector, postID string) error {
	var err error
	doErr := sh.loop.Do(func() {
		btn := byPost(sh.page.Find(selector), postID)
		if btn.Length() == 0 {
			err = fmt.Errorf("post %s has no %s", postID, selector)
			return
		}
		sh.page.Dispatch(btn, page.EventClick)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (sh *shell) upload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	file := page.File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	}

	doErr := sh.loop.Do(func() {
		form := sh.page.Find(controller.DefaultBindings().ProfilePicForm).First()
		if form.Length() == 0 {
			err = errors.New("page has no profile picture form")
			return
		}
		sh.page.SetFiles(form.Find(`input[type="file"]`).First(), file)
		sh.page.Dispatch(form, page.EventSubmit)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func byPost(sel *goquery.Selection, postID string) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("data-post-id", "") == postID
	}).First()
}
