package diagram

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// breakTags separate words when an HTML label is flattened to text.
var breakTags = map[string]bool{"br": true, "div": true, "p": true, "li": true}

// Parse decodes a draw.io export into a Graph.
//
// Elements carrying source/target references (or edge="1") become edges in
// document order. Elements carrying an id and a value attribute become nodes;
// <object>/<UserObject> wrappers use their label attribute instead. Compressed
// <diagram> payloads are inflated and parsed in place. It returns a
// MalformedDiagramError when the input is not well-formed markup.
func Parse(r io.Reader) (*Graph, error) {
	g := NewGraph()
	if err := decodeInto(g, r, true); err != nil {
		return nil, err
	}
	g.Link()
	return g, nil
}

func decodeInto(g *Graph, r io.Reader, allowCompressed bool) error {
	dec := xml.NewDecoder(r)

	var (
		sawElement bool
		inDiagram  bool
		nested     int
		payload    strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &MalformedDiagramError{Msg: "invalid markup", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawElement = true
			if inDiagram {
				nested++
			}
			if t.Name.Local == "diagram" && !inDiagram {
				inDiagram = true
				nested = 0
				payload.Reset()
				continue
			}
			collect(g, t)
		case xml.CharData:
			if inDiagram && nested == 0 {
				payload.Write(t)
			}
		case xml.EndElement:
			if !inDiagram {
				continue
			}
			if nested > 0 {
				nested--
				continue
			}
			inDiagram = false
			text := strings.TrimSpace(payload.String())
			if text == "" || !allowCompressed {
				continue
			}
			inner, err := inflate(text)
			if err != nil {
				return &MalformedDiagramError{Msg: "cannot inflate compressed diagram", Err: err}
			}
			if err := decodeInto(g, bytes.NewReader(inner), false); err != nil {
				return err
			}
		}
	}

	if !sawElement {
		return &MalformedDiagramError{Msg: "document has no elements"}
	}
	return nil
}

// collect classifies one element as an edge record, a node record or neither.
func collect(g *Graph, el xml.StartElement) {
	attrs := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		attrs[a.Name.Local] = a.Value
	}

	source, hasSource := attrs["source"]
	target, hasTarget := attrs["target"]
	if hasSource || hasTarget || attrs["edge"] == "1" {
		g.AddEdge(source, target)
		return
	}

	label, ok := attrs["value"]
	if !ok && (el.Name.Local == "object" || el.Name.Local == "UserObject") {
		label, ok = attrs["label"]
	}
	id := attrs["id"]
	if !ok || id == "" {
		return
	}
	g.AddNode(id, DecodeLabel(label, strings.Contains(attrs["style"], "html=1")))
}

// DecodeLabel turns a stored label into plain text. Plain labels are used as
// the XML decoder left them. When isHTML is set the label is tokenized as HTML:
// text tokens are kept with entities resolved, and block or line-break tags
// become spaces.
func DecodeLabel(raw string, isHTML bool) string {
	if !isHTML {
		return strings.Join(strings.Fields(raw), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if breakTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}

// inflate undoes draw.io compression: base64, raw deflate, then URI encoding.
func inflate(text string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, err
	}
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()
	raw, err := io.ReadAll(fr)
	if err != nil {
		return nil, err
	}
	decoded, err := url.PathUnescape(string(raw))
	if err != nil {
		return nil, err
	}
	return []byte(decoded), nil
}
