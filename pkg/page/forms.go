package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field is one successful form control.
type Field struct {
	Name  string
	Value string
}

// File is a file chosen in a file input.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// SerializeForm collects the successful controls of the first form in sel in
// document order: named, enabled, not a button or file input, and checked when
// the control is a checkbox or radio.
func (p *Page) SerializeForm(form *goquery.Selection) []Field {
	var fields []Field
	form.First().Find("input, textarea, select").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := s.Attr("disabled"); disabled {
			return
		}

		if goquery.NodeName(s) == "input" {
			switch inputType(s) {
			case "submit", "button", "reset", "image", "file":
				return
			case "checkbox", "radio":
				if _, checked := s.Attr("checked"); !checked {
					return
				}
			}
		}

		fields = append(fields, Field{Name: name, Value: p.Value(s)})
	})

	return fields
}

// Value returns the current value of the first control in sel.
func (p *Page) Value(s *goquery.Selection) string {
	s = s.First()
	switch goquery.NodeName(s) {
	case "textarea":
		return s.Text()
	case "select":
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		return optionValue(opt)
	case "input":
		v, ok := s.Attr("value")
		if !ok {
			switch inputType(s) {
			case "checkbox", "radio":
				return "on"
			}
		}
		return v
	default:
		return s.AttrOr("value", "")
	}
}

// SetValue sets the value of every control in sel. Setting a file input
// clears its selected files.
func (p *Page) SetValue(sel *goquery.Selection, v string) {
	sel.Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "textarea":
			s.SetText(v)
		case "select":
			s.Find("option").Each(func(_ int, o *goquery.Selection) {
				if v != "" && optionValue(o) == v {
					o.SetAttr("selected", "")
				} else {
					o.RemoveAttr("selected")
				}
			})
		default:
			if goquery.NodeName(s) == "input" && inputType(s) == "file" {
				delete(p.files, s.Get(0))
			}
			s.SetAttr("value", v)
		}
	})
}

func (p *Page) SetFiles(input *goquery.Selection, files ...File) {
	if input.Length() == 0 {
		return
	}
	p.files[input.Get(0)] = files
}

func (p *Page) Files(input *goquery.Selection) []File {
	if input.Length() == 0 {
		return nil
	}
	return p.files[input.Get(0)]
}

// Focus moves input focus to the first element of sel.
func (p *Page) Focus(sel *goquery.Selection) {
	if sel.Length() == 0 {
		return
	}
	p.focused = sel.Get(0)
}

// Blur removes focus from sel if one of its elements holds it.
func (p *Page) Blur(sel *goquery.Selection) {
	for _, n := range sel.Nodes {
		if p.focused == n {
			p.focused = nil
		}
	}
}

// Focused returns the element holding focus, or an empty selection.
func (p *Page) Focused() *goquery.Selection {
	if p.focused == nil {
		return p.doc.FindNodes()
	}
	return p.doc.FindNodes(p.focused)
}

func inputType(s *goquery.Selection) string {
	t := strings.ToLower(s.AttrOr("type", "text"))
	if t == "" {
		return "text"
	}
	return t
}

func optionValue(o *goquery.Selection) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(o.Text())
}
