package controller

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

const DeleteConfirmMessage = "Are you sure you want to delete your post?"

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(message string) bool
}

type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool {
	return f(message)
}

// confirmDelete asks for consent before a post is deleted. Without a
// Confirmer the answer is no.
func confirmDelete(c Confirmer) bool {
	if c == nil {
		log.Warn("[confirmDelete] no confirmer configured, delete declined")
		return false
	}
	return c.Confirm(DeleteConfirmMessage)
}

// PromptConfirmer asks on a text stream. Only "y" and "yes" confirm.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in *bufio.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: in, out: out}
}

func (p *PromptConfirmer) Confirm(message string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", message)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
