package examxml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	inlineFormula    = regexp.MustCompile(`(?s)\\\((.*?)\\\)`)
	displayedFormula = regexp.MustCompile(`(?s)\\\[(.*?)\\\]`)
)

// Tags that belong to the exam namespace when they appear bare in rich text.
var examTags = map[string]bool{
	"image":           true,
	"video":           true,
	"audio":           true,
	"attachment-link": true,
}

// Sanitize turns a rich-text HTML snippet into exam markup nodes. The returned
// nodes are detached from any parent and ready to be appended to an element
// of the exam document.
func Sanitize(raw string) ([]*xmlquery.Node, error) {
	rewritten, err := rewriteLegacyTokens(raw)
	if err != nil {
		return nil, fmt.Errorf("tokenize html: %w", err)
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(rewritten), &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div})
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	trimEdges(container)

	doc := goquery.NewDocumentFromNode(container)
	rewriteAttachmentRefs(doc.Selection)
	extractFormulas(doc.Selection)

	markup, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return parseFragment(markup)
}

// rewriteLegacyTokens rewrites old-style <img> and <a> attachment markup and
// moves bare media tags into the exam namespace. It runs on the token stream
// because the HTML tree builder would turn <image> into a void <img>.
func rewriteLegacyTokens(raw string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(raw))
	var tokens []html.Token
	for {
		if z.Next() == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			break
		}
		tokens = append(tokens, z.Token())
	}

	var (
		out          strings.Builder
		openImages   int
		pendingLinks []string
	)
	write := func(t html.Token) { out.WriteString(t.String()) }

	for i, t := range tokens {
		switch {
		case t.Data == "img" && (t.Type == html.StartTagToken || t.Type == html.SelfClosingTagToken):
			src, ok := attr(t, "src")
			if !ok {
				write(t)
				continue
			}
			write(examStartTag("image", "src", attachmentBase(src)))
			if t.Type == html.StartTagToken && closedLater(tokens[i+1:], "img") {
				openImages++
				continue
			}
			write(examEndTag("image"))
		case t.Data == "img" && t.Type == html.EndTagToken:
			if openImages > 0 {
				openImages--
				write(examEndTag("image"))
			}
		case t.Data == "a" && t.Type == html.StartTagToken:
			href, ok := attr(t, "href")
			if !ok || href == "" || !closedLater(tokens[i+1:], "a") {
				write(t)
				continue
			}
			pendingLinks = append(pendingLinks, attachmentBase(href))
		case t.Data == "a" && t.Type == html.EndTagToken && len(pendingLinks) > 0:
			ref := pendingLinks[len(pendingLinks)-1]
			pendingLinks = pendingLinks[:len(pendingLinks)-1]
			write(html.Token{Type: html.TextToken, Data: " "})
			write(examStartTag("attachment-link", "ref", ref))
			write(examEndTag("attachment-link"))
		case t.Type == html.StartTagToken || t.Type == html.EndTagToken || t.Type == html.SelfClosingTagToken:
			if examTags[t.Data] {
				t.Data = "e:" + t.Data
			}
			if t.Type == html.SelfClosingTagToken && strings.HasPrefix(t.Data, "e:") {
				t.Type = html.StartTagToken
				write(t)
				write(examEndTag(strings.TrimPrefix(t.Data, "e:")))
				continue
			}
			write(t)
		default:
			write(t)
		}
	}
	return out.String(), nil
}

// closedLater reports whether an end tag named name follows before another
// start tag of the same name.
func closedLater(tokens []html.Token, name string) bool {
	for _, t := range tokens {
		if t.Data != name {
			continue
		}
		switch t.Type {
		case html.EndTagToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			return false
		}
	}
	return false
}

func attr(t html.Token, key string) (string, bool) {
	for _, a := range t.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func examStartTag(name, key, val string) html.Token {
	return html.Token{
		Type: html.StartTagToken,
		Data: "e:" + name,
		Attr: []html.Attribute{{Key: key, Val: val}},
	}
}

func examEndTag(name string) html.Token {
	return html.Token{Type: html.EndTagToken, Data: "e:" + name}
}

// attachmentBase strips everything up to the last "attachments/" (any case).
func attachmentBase(ref string) string {
	lower := []byte(ref)
	for i, c := range lower {
		if 'A' <= c && c <= 'Z' {
			lower[i] = c + 'a' - 'A'
		}
	}
	const marker = "attachments/"
	if i := bytes.LastIndex(lower, []byte(marker)); i >= 0 {
		return ref[i+len(marker):]
	}
	return ref
}

func trimEdges(container *html.Node) {
	if first := container.FirstChild; first != nil && first.Type == html.TextNode {
		first.Data = strings.TrimLeft(first.Data, " \t\r\n\f")
		if first.Data == "" {
			container.RemoveChild(first)
		}
	}
	if last := container.LastChild; last != nil && last.Type == html.TextNode {
		last.Data = strings.TrimRight(last.Data, " \t\r\n\f")
		if last.Data == "" {
			container.RemoveChild(last)
		}
	}
}

func elementsNamed(s *goquery.Selection, name string) *goquery.Selection {
	return s.Find("*").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return goquery.NodeName(el) == name
	})
}

func rewriteAttachmentRefs(root *goquery.Selection) {
	elementsNamed(root, "e:attachment-link").Each(func(_ int, link *goquery.Selection) {
		if ref, ok := link.Attr("ref"); ok {
			link.SetAttr("ref", AttachmentRef(ref))
		}
	})
	elementsNamed(root, "e:image").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		if decoded, err := url.PathUnescape(src); err == nil {
			img.SetAttr("src", decoded)
		}
	})
}

func extractFormulas(root *goquery.Selection) {
	texts := root.Find("*").AddBack().Contents().FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Get(0).Type == html.TextNode
	})
	texts.Each(func(_ int, s *goquery.Selection) {
		text := s.Get(0).Data
		if !strings.Contains(text, "\n") && !inlineFormula.MatchString(text) && !displayedFormula.MatchString(text) {
			return
		}
		s.ReplaceWithNodes(splitText(text)...)
	})
}

// splitText converts one text node into text, formula and line break nodes.
// Inline formulas are matched before displayed ones.
func splitText(text string) []*html.Node {
	var nodes []*html.Node
	splitFormulas(text, inlineFormula, func(plain string) {
		splitFormulas(plain, displayedFormula, func(plain string) {
			nodes = append(nodes, splitLines(plain)...)
		}, func(formula string) {
			nodes = append(nodes, formulaNode(formula, true))
		})
	}, func(formula string) {
		nodes = append(nodes, formulaNode(formula, false))
	})
	return nodes
}

func splitFormulas(text string, re *regexp.Regexp, onText, onFormula func(string)) {
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			onText(text[last:m[0]])
		}
		onFormula(text[m[2]:m[3]])
		last = m[1]
	}
	if last < len(text) {
		onText(text[last:])
	}
}

func splitLines(text string) []*html.Node {
	var nodes []*html.Node
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			nodes = append(nodes, &html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
		}
		if line != "" {
			nodes = append(nodes, &html.Node{Type: html.TextNode, Data: line})
		}
	}
	return nodes
}

func formulaNode(formula string, display bool) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "e:formula"}
	if display {
		n.Attr = []html.Attribute{{Key: "mode", Val: "display"}}
	}
	if formula = strings.ReplaceAll(formula, "\n", ""); formula != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: formula})
	}
	return n
}

// parseFragment parses serialized markup strictly as namespaced XML and returns
// the children of the wrapping element.
func parseFragment(markup string) ([]*xmlquery.Node, error) {
	wrapped := fmt.Sprintf(`<fragment xmlns="%s" xmlns:e="%s">%s</fragment>`, XHTMLNamespace, ExamNamespace, markup)
	doc, err := xmlquery.Parse(strings.NewReader(wrapped))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	root := documentElement(doc)
	if root == nil {
		return nil, errors.New("parse markup: no root element")
	}
	children := root.ChildNodes()
	for _, child := range children {
		xmlquery.RemoveFromTree(child)
	}
	return children, nil
}

func documentElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}
