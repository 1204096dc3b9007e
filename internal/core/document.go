package core

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/rs/zerolog/log"

	"cargo-add/internal/types"
)

type itemKind int

const (
	itemEntry itemKind = iota
	itemTable
	itemArrayTable
)

// docItem is one top level expression together with the text that
// belongs to it: the comment lines right above it, the expression and
// the blank lines after it.
type docItem struct {
	kind  itemKind
	table []string // owning table for entries, own path for headers
	key   []string // dotted key of an entry, relative to table
	array bool     // entry or header of an array of tables
	decor []byte
	body  []byte
	tail  []byte

	// comment is the trailing same-line comment of the expression,
	// including the whitespace in front of it.
	comment []byte
}

// Document is an order preserving manifest. Items the editor does not
// touch are written back byte for byte; new lines use the line ending
// of the parsed input.
type Document struct {
	lead  []byte
	items []*docItem
	eol   string
}

// exprMark records where a top level expression starts in the source.
type exprMark struct {
	kind    itemKind
	table   []string
	key     []string
	array   bool
	start   int
	line    int
	comment []byte
}

func NewDocument() *Document {
	return &Document{eol: "\n"}
}

// ParseDocument reads manifest text. The whole input is validated as
// TOML before it is split into items.
func ParseDocument(data []byte) (*Document, error) {
	eol := detectLineEnding(data)
	src := make([]byte, len(data), len(data)+len(eol))
	copy(src, data)
	if len(src) > 0 && src[len(src)-1] != '\n' {
		src = append(src, eol...)
	}
	var probe map[string]any
	if err := toml.Unmarshal(src, &probe); err != nil {
		return nil, parseError(err)
	}
	marks, err := scanExpressions(src)
	if err != nil {
		return nil, parseError(err)
	}
	doc := &Document{eol: eol}
	if len(marks) == 0 {
		doc.lead = src
		return doc, nil
	}
	doc.lead = bytes.Clone(src[:marks[0].start])
	for i, mark := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		body, tail := splitTail(src[mark.line:end])
		doc.items = append(doc.items, &docItem{
			kind:  mark.kind,
			table: mark.table,
			key:   mark.key,
			array:   mark.array,
			decor:   bytes.Clone(src[mark.start:mark.line]),
			body:    body,
			tail:    tail,
			comment: mark.comment,
		})
	}
	return doc, nil
}

func scanExpressions(src []byte) ([]exprMark, error) {
	p := unstable.Parser{KeepComments: true}
	p.Reset(src)
	var marks []exprMark
	var current []string
	currentArray := false
	pending := -1
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Comment:
			offset := int(expr.Raw.Offset)
			line := lineStart(src, offset)
			if pending < 0 && len(bytes.TrimSpace(src[line:offset])) == 0 {
				pending = line
			}
		case unstable.KeyValue, unstable.Table, unstable.ArrayTable:
			path, offset := keyPath(expr.Key())
			line := lineStart(src, offset)
			mark := exprMark{start: line, line: line}
			if pending >= 0 && pending < line {
				mark.start = pending
			}
			pending = -1
			switch expr.Kind {
			case unstable.KeyValue:
				mark.kind = itemEntry
				mark.table = current
				mark.key = path
				mark.array = currentArray
				mark.comment = trailingComment(src, expr)
			case unstable.Table:
				mark.kind = itemTable
				mark.table = path
				current, currentArray = path, false
			default:
				mark.kind = itemArrayTable
				mark.table = path
				mark.array = true
				current, currentArray = path, true
			}
			marks = append(marks, mark)
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return marks, nil
}

// trailingComment returns the comment the parser chained to expr, with
// the blanks that separate it from the value.
func trailingComment(src []byte, expr *unstable.Node) []byte {
	next := expr.Next()
	if next == nil || !next.Valid() || next.Kind != unstable.Comment {
		return nil
	}
	start := int(next.Raw.Offset)
	end := start + int(next.Raw.Length)
	for start > 0 && (src[start-1] == ' ' || src[start-1] == '\t') {
		start--
	}
	return bytes.Clone(bytes.TrimSuffix(src[start:end], []byte("\r")))
}

// detectLineEnding reports "\r\n" when the first line of data ends that
// way and "\n" otherwise.
func detectLineEnding(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i > 0 && data[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

func (d *Document) newline() string {
	if d.eol == "" {
		return "\n"
	}
	return d.eol
}

func keyPath(it unstable.Iterator) ([]string, int) {
	var path []string
	offset := -1
	for it.Next() {
		node := it.Node()
		if offset < 0 {
			offset = int(node.Raw.Offset)
		}
		path = append(path, string(node.Data))
	}
	return path, offset
}

func lineStart(src []byte, offset int) int {
	return bytes.LastIndexByte(src[:offset], '\n') + 1
}

// splitTail separates the trailing blank lines of a segment.
func splitTail(segment []byte) ([]byte, []byte) {
	end := len(bytes.TrimRight(segment, " \t\r\n"))
	if nl := bytes.IndexByte(segment[end:], '\n'); nl >= 0 {
		end += nl + 1
	} else {
		end = len(segment)
	}
	return bytes.Clone(segment[:end]), bytes.Clone(segment[end:])
}

// Bytes serializes the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	buf.Write(d.lead)
	for _, item := range d.items {
		buf.Write(item.decor)
		buf.Write(item.body)
		buf.Write(item.tail)
	}
	return buf.Bytes()
}

func (d *Document) String() string {
	return string(d.Bytes())
}

// Tree decodes the document into nested maps. Two documents are equal
// when their trees are equal.
func (d *Document) Tree() (map[string]any, error) {
	tree := map[string]any{}
	if err := toml.Unmarshal(d.Bytes(), &tree); err != nil {
		return nil, parseError(err)
	}
	return tree, nil
}

// Lookup returns the value at path. Each element is one key segment.
func (d *Document) Lookup(path ...string) (any, bool) {
	tree, err := d.Tree()
	if err != nil {
		return nil, false
	}
	var current any = tree
	for _, segment := range path {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = table[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// EnsureTable makes sure a [path] header exists, appending one at the
// end of the document when needed. Calling it again is a no-op.
func (d *Document) EnsureTable(path []string) error {
	exists, err := d.checkTable(path)
	if err != nil || exists {
		return err
	}
	d.appendTable(path)
	return nil
}

// checkTable reports whether a [path] header exists and whether one can
// be added without redefining a table declared some other way.
func (d *Document) checkTable(path []string) (bool, error) {
	if len(path) == 0 {
		return true, nil
	}
	for _, item := range d.items {
		switch item.kind {
		case itemTable:
			if equalPath(item.table, path) {
				return true, nil
			}
		case itemArrayTable:
			if hasPrefix(path, item.table) {
				return false, tableConflict(path, "is inside an array of tables")
			}
		case itemEntry:
			if item.array || len(item.table) >= len(path) {
				continue
			}
			full := append(clonePath(item.table), item.key...)
			if hasPrefix(full, path) || hasPrefix(path, full) {
				return false, tableConflict(path, "is defined by a key/value pair")
			}
		}
	}
	return false, nil
}

// SetEntry writes key = value into table. Every existing form of the key
// (plain value, dotted keys, [table.key] sub-tables) is replaced. A
// replaced plain entry keeps its position and surrounding comments; a
// replaced sub-table is succeeded in place by a new [table] header when
// the document had none.
func (d *Document) SetEntry(table []string, key string, value Value) error {
	exists, err := d.checkTable(table)
	if err != nil {
		return err
	}
	eol := d.newline()
	entryPath := append(clonePath(table), key)
	item := &docItem{
		kind:  itemEntry,
		table: clonePath(table),
		key:   []string{key},
		body:  []byte(encodeKey(key) + " = " + value.Encode() + eol),
	}
	kept := make([]*docItem, 0, len(d.items))
	insertAt, subAt := -1, -1
	var replaced *docItem
	var replacedTail, subDecor, subTail []byte
	for _, existing := range d.items {
		switch {
		case existing.kind == itemEntry && !existing.array && equalPath(existing.table, table) && existing.key[0] == key:
			if replaced == nil {
				replaced = existing
				insertAt = len(kept)
			}
			replacedTail = existing.tail
			continue
		case hasPrefix(existing.table, entryPath):
			if subAt < 0 {
				subAt = len(kept)
				subDecor = existing.decor
			}
			subTail = existing.tail
			continue
		}
		kept = append(kept, existing)
	}
	if replaced != nil {
		if len(replaced.key) == 1 && len(replaced.comment) > 0 {
			item.body = append(bytes.TrimSuffix(item.body, []byte(eol)), replaced.comment...)
			item.body = append(item.body, eol...)
			item.comment = replaced.comment
		}
		item.decor = replaced.decor
		item.tail = replacedTail
		d.items = insertItem(kept, insertAt, item)
		return nil
	}
	d.items = kept
	if !exists && subAt >= 0 {
		header := d.newTable(table)
		header.decor = subDecor
		item.tail = subTail
		d.items = insertItem(insertItem(d.items, subAt, header), subAt+1, item)
		log.Debug().
			Str("table", encodeKeyPath(table)).
			Msg("created manifest table in place of sub-table")
		return nil
	}
	if !exists {
		d.appendTable(table)
	}
	d.appendEntry(table, item)
	return nil
}

func (d *Document) newTable(path []string) *docItem {
	return &docItem{
		kind:  itemTable,
		table: clonePath(path),
		body:  []byte("[" + encodeKeyPath(path) + "]" + d.newline()),
	}
}

func (d *Document) appendTable(path []string) {
	item := d.newTable(path)
	if n := len(d.items); n > 0 {
		if len(d.items[n-1].tail) == 0 {
			item.decor = []byte(d.newline())
		}
	} else if len(bytes.TrimSpace(d.lead)) > 0 {
		item.decor = []byte(d.newline())
	}
	d.items = append(d.items, item)
	log.Debug().
		Str("table", encodeKeyPath(path)).
		Msg("created manifest table")
}

// appendEntry places item after the last entry of table's block and
// moves the block's trailing blank lines below it.
func (d *Document) appendEntry(table []string, item *docItem) {
	header := -1
	if len(table) > 0 {
		for i, existing := range d.items {
			if existing.kind == itemTable && equalPath(existing.table, table) {
				header = i
				break
			}
		}
	}
	last := header
	for i := header + 1; i < len(d.items); i++ {
		if d.items[i].kind != itemEntry {
			break
		}
		last = i
	}
	if last >= 0 {
		prev := d.items[last]
		item.tail, prev.tail = prev.tail, nil
	}
	d.items = insertItem(d.items, last+1, item)
}

func insertItem(items []*docItem, at int, item *docItem) []*docItem {
	items = append(items, nil)
	copy(items[at+1:], items[at:])
	items[at] = item
	return items
}

func clonePath(path []string) []string {
	return append([]string(nil), path...)
}

func equalPath(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	return hasPrefix(a, b)
}

// hasPrefix reports whether prefix is a leading part of path.
func hasPrefix(path []string, prefix []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

func tableConflict(path []string, reason string) error {
	return types.NewEditError(
		types.ErrorKindTableConflict,
		errbuilder.CodeFailedPrecondition,
		fmt.Sprintf("table %s %s", encodeKeyPath(path), reason),
	)
}

func parseError(err error) error {
	msg := "failed to parse manifest"
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		msg = fmt.Sprintf("failed to parse manifest at line %d, column %d", row, col)
	}
	return &types.EditError{
		Kind: types.ErrorKindDocumentParse,
		Err: errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(msg).
			WithCause(err),
	}
}
