package document

import (
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"
)

const imagesPrefix = "images/"

var attrValuePattern = regexp.MustCompile(`(?i)(\b(?:src|href)\s*=\s*)("[^"]*"|'[^']*')`)

// ReplaceSplitImage swaps the anchor that shows the combined image oldName for
// two zoomable anchors showing the obverse and reverse halves.
func ReplaceSplitImage(doc, oldName, obverse, reverse, title string) (string, bool) {
	quoted := regexp.QuoteMeta(imagesPrefix + oldName)
	pattern, err := regexp.Compile(`(?i)<a[^>]*href="` + quoted + `"[^>]*>[\s\S]*?<img[^>]*src="` + quoted + `"[^>]*>[\s\S]*?</a>`)
	if err != nil {
		return doc, false
	}
	if !pattern.MatchString(doc) {
		return doc, false
	}
	return pattern.ReplaceAllLiteralString(doc, splitAnchors(obverse, reverse, title)), true
}

func splitAnchors(obverse, reverse, title string) string {
	anchor := func(name, face string) string {
		return fmt.Sprintf(`<a class="coin_pic" data-zoompic="" data-zoompicgroup="coin_pic" href="%[1]s" target="_blank"><img alt="%[2]s - %[3]s" src="%[1]s" title=""/></a>`,
			html.EscapeString(imagesPrefix+name), html.EscapeString(title), face)
	}
	return anchor(obverse, "obverse") + "<!--\n-->" + anchor(reverse, "reverse")
}

// RemoveSaleTableBody deletes the <tbody> element enclosing a reference to
// image name.
func RemoveSaleTableBody(doc, name string) (string, bool) {
	return removeEnclosing(doc, name, "tbody")
}

// RemoveImageRow deletes the <tr> element enclosing a reference to image
// name.
func RemoveImageRow(doc, name string) (string, bool) {
	return removeEnclosing(doc, name, "tr")
}

// removeEnclosing drops the innermost tag element around the first reference
// to name that sits inside one. Elements closed before the reference do not
// count.
func removeEnclosing(doc, name, tag string) (string, bool) {
	closing := "</" + tag + ">"
	ref := imagesPrefix + name
	for at := indexFold(doc, ref, 0); at >= 0; at = indexFold(doc, ref, at+len(ref)) {
		start := lastOpenTag(doc, tag, at)
		if start < 0 {
			continue
		}
		if indexFold(doc[:at], closing, start) >= 0 {
			continue
		}
		end := indexFold(doc, closing, at)
		if end < 0 {
			continue
		}
		return doc[:start] + doc[end+len(closing):], true
	}
	return doc, false
}

// lastOpenTag finds the last opening tag before index before, ignoring tags
// that merely share the prefix (<tr> versus <track>).
func lastOpenTag(doc, tag string, before int) int {
	open := "<" + tag
	for i := lastIndexFold(doc, open, before); i >= 0; i = lastIndexFold(doc, open, i-1) {
		next := i + len(open)
		if next >= len(doc) {
			continue
		}
		switch doc[next] {
		case '>', ' ', '\t', '\n', '\r', '/':
			return i
		}
	}
	return -1
}

// ReplaceImageReference points every src or href attribute whose file name is
// oldName at newName instead. Names compare case-insensitively.
func ReplaceImageReference(doc, oldName, newName string) (string, bool) {
	return rewriteImageAttrs(doc, func(base string) (string, bool) {
		if strings.EqualFold(base, oldName) {
			return newName, true
		}
		return "", false
	})
}

// SwapImageReferences exchanges the file names a and b in every src or href
// attribute in a single pass.
func SwapImageReferences(doc, a, b string) (string, bool) {
	return rewriteImageAttrs(doc, func(base string) (string, bool) {
		switch {
		case strings.EqualFold(base, a):
			return b, true
		case strings.EqualFold(base, b):
			return a, true
		}
		return "", false
	})
}

// rewriteImageAttrs maps the last path element of each src/href value
// through fn.
func rewriteImageAttrs(doc string, fn func(base string) (string, bool)) (string, bool) {
	changed := false
	out := attrValuePattern.ReplaceAllStringFunc(doc, func(match string) string {
		parts := attrValuePattern.FindStringSubmatch(match)
		prefix, quoted := parts[1], parts[2]
		quote, value := quoted[:1], quoted[1:len(quoted)-1]

		dir, base := path.Split(value)
		replacement, ok := fn(base)
		if !ok {
			return match
		}
		changed = true
		return prefix + quote + dir + replacement + quote
	})
	return out, changed
}

// indexFold is a case-insensitive strings.Index starting at from.
func indexFold(s, sub string, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

// lastIndexFold finds the last case-insensitive occurrence of sub starting
// at or before before.
func lastIndexFold(s, sub string, before int) int {
	for i := before; i >= 0; i-- {
		if i+len(sub) <= len(s) && strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}
