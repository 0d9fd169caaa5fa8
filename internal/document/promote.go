package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	examplesHeading  = "Examples of the type"
	pastSalesHeading = "Past sales"
	examplesListID   = "examples_list"
	fichePhotoID     = "fiche_photo"
	descriptionsID   = "fiche_descriptions"
	exampleImageCls  = "example_image"
)

// Faces names the image files of a sample.
type Faces struct {
	Obverse string
	Reverse string
}

// Promote rewrites the page so promoted is shown as the main photograph and,
// when demoted is non-nil, lists the former reference under "Examples of the
// type". An existing example entry for promoted is reused for demoted;
// otherwise a new entry is appended.
func Promote(doc string, promoted Faces, demoted *Faces) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return doc, fmt.Errorf("parse document: %w", err)
	}

	if photo := findFirst(root, byID(fichePhotoID)); photo != nil {
		links := findAll(photo, isElement(atom.A))
		if len(links) >= 1 {
			pointLinkAt(links[0], promoted.Obverse)
		}
		if len(links) >= 2 && promoted.Reverse != "" {
			pointLinkAt(links[1], promoted.Reverse)
		}
	}

	if demoted != nil {
		if list := examplesList(root); list != nil {
			listDemoted(list, promoted, *demoted)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return doc, fmt.Errorf("render document: %w", err)
	}
	return buf.String(), nil
}

// examplesList returns the div#examples_list of the examples section,
// creating the section when the page has none.
func examplesList(root *html.Node) *html.Node {
	if heading := findFirst(root, headingContaining(examplesHeading)); heading != nil {
		if heading.Parent == nil {
			return nil
		}
		return findFirst(heading.Parent, func(n *html.Node) bool {
			return isElement(atom.Div)(n) && attr(n, "id") == examplesListID
		})
	}

	list := element(atom.Div, "id", examplesListID)
	heading := element(atom.H3)
	heading.AppendChild(&html.Node{Type: html.TextNode, Data: examplesHeading})
	section := element(atom.Section)
	section.AppendChild(heading)
	section.AppendChild(list)

	pastSales := findFirst(root, func(n *html.Node) bool {
		return isElement(atom.Section)(n) && findFirst(n, headingContaining(pastSalesHeading)) != nil
	})
	switch {
	case pastSales != nil && pastSales.Parent != nil:
		pastSales.Parent.InsertBefore(section, pastSales)
	default:
		if desc := findFirst(root, byID(descriptionsID)); desc != nil && desc.Parent != nil {
			desc.Parent.InsertBefore(section, desc.NextSibling)
		} else if body := findFirst(root, isElement(atom.Body)); body != nil {
			body.AppendChild(section)
		} else {
			return nil
		}
	}
	return list
}

func listDemoted(list *html.Node, promoted, demoted Faces) {
	for _, entry := range findAll(list, hasClass(exampleImageCls)) {
		links := findAll(entry, isElement(atom.A))
		if len(links) == 0 || !strings.Contains(attr(links[0], "href"), promoted.Obverse) {
			continue
		}
		pointLinkAt(links[0], demoted.Obverse)
		if demoted.Reverse != "" {
			if len(links) > 1 {
				pointLinkAt(links[1], demoted.Reverse)
			} else {
				entry.AppendChild(imageLink(demoted.Reverse))
			}
		}
		return
	}

	entry := element(atom.Div, "class", exampleImageCls)
	entry.AppendChild(imageLink(demoted.Obverse))
	if demoted.Reverse != "" {
		entry.AppendChild(imageLink(demoted.Reverse))
	}
	wrapper := element(atom.Div)
	wrapper.AppendChild(entry)
	list.AppendChild(wrapper)
}

func pointLinkAt(link *html.Node, name string) {
	setAttr(link, "href", imagesPrefix+name)
	if img := findFirst(link, isElement(atom.Img)); img != nil {
		setAttr(img, "src", imagesPrefix+name)
	}
}

func imageLink(name string) *html.Node {
	link := element(atom.A, "href", imagesPrefix+name)
	link.AppendChild(element(atom.Img, "src", imagesPrefix+name))
	return link
}

func element(a atom.Atom, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a }
}

func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && attr(n, "id") == id }
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func headingContaining(text string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return isElement(atom.H3)(n) && strings.Contains(textContent(n), text)
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// findAll returns the descendants of n matching pred in document order.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			out = append(out, c)
		}
		out = append(out, findAll(c, pred)...)
	}
	return out
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}
