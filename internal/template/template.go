package template

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// MaxEnvelopeLen is the longest compressed template the companion accepts
// in a single command.
const MaxEnvelopeLen = 65535

// Template is an ordered run of blocks. Name is only used for display and
// is not part of the document.
type Template struct {
	Name   string
	Blocks []Block
}

func New(blocks ...Block) Template {
	return Template{Blocks: blocks}
}

// Append adds blocks to the end of t.
func (t *Template) Append(blocks ...Block) {
	t.Blocks = append(t.Blocks, blocks...)
}

type document struct {
	Blocks []json.RawMessage `json:"blocks"`
}

// Document returns the compact {"blocks":[...]} JSON document.
func (t Template) Document() ([]byte, error) {
	doc := document{Blocks: make([]json.RawMessage, 0, len(t.Blocks))}
	for i, b := range t.Blocks {
		raw, err := EncodeBlock(b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		doc.Blocks = append(doc.Blocks, raw)
	}
	return json.Marshal(doc)
}

// FromDocument parses a {"blocks":[...]} document. Blocks keep document order.
func FromDocument(raw []byte) (Template, error) {
	o, err := parseObject("template", "", raw)
	if err != nil {
		return Template{}, err
	}
	if !o.has("blocks") {
		return Template{}, missing("template", "blocks")
	}
	var blocks []json.RawMessage
	if err := o.decode("blocks", &blocks); err != nil {
		return Template{}, err
	}
	var t Template
	for i, r := range blocks {
		if !isObject(r) {
			return Template{}, unexpected("template", fmt.Sprintf("blocks[%d]", i))
		}
		b, err := DecodeBlock(r)
		if err != nil {
			return Template{}, fmt.Errorf("block %d: %w", i, err)
		}
		t.Blocks = append(t.Blocks, b)
	}
	return t, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// Compress returns base64(gzip(document)). It fails with ErrTooLarge when
// the result would not fit in one companion command.
func (t Template) Compress() (string, error) {
	doc, err := t.Document()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(doc); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	out := base64.StdEncoding.EncodeToString(buf.Bytes())
	if len(out) > MaxEnvelopeLen {
		return "", fmt.Errorf("%w: %d / %d", ErrTooLarge, len(out), MaxEnvelopeLen)
	}
	return out, nil
}

// Decompress reverses Compress.
func Decompress(envelope string) (Template, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envelope))
	if err != nil {
		return Template{}, fmt.Errorf("decode envelope: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return Template{}, fmt.Errorf("decode envelope: %w", err)
	}
	defer zr.Close()
	doc, err := io.ReadAll(zr)
	if err != nil {
		return Template{}, fmt.Errorf("decode envelope: %w", err)
	}
	return FromDocument(doc)
}
