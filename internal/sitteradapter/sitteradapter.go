// Package sitteradapter converts between LSP positions, which count UTF-16
// code units, and tree-sitter points, which count bytes.
package sitteradapter

import (
	"strings"
	"unicode/utf8"

	"laravells/internal/parser"

	lsp "github.com/tliron/glsp/protocol_3_16"
)

// LSPPositionToPoint converts an LSP Position to a Point in document.
// Positions beyond the end of a line or of the document are carried over
// unclamped so that they still fall outside the parsed tree.
func LSPPositionToPoint(document string, pos lsp.Position) parser.Point {
	lines := strings.Split(document, "\n")
	if int(pos.Line) >= len(lines) {
		return parser.Point{Row: pos.Line, Column: pos.Character}
	}

	charCount, byteCount := utf16Prefix(lines[pos.Line], pos.Character)
	column := uint32(byteCount)
	if charCount < pos.Character {
		column += pos.Character - charCount
	}
	return parser.Point{Row: pos.Line, Column: column}
}

// utf16Prefix walks line until limit UTF-16 code units have been consumed
// and returns the units and bytes actually covered.
func utf16Prefix(line string, limit uint32) (units uint32, bytes int) {
	for _, r := range line {
		// Each codepoint uses 1 or 2 UTF-16 code units
		n := uint32(1)
		if r > 0xFFFF {
			n = 2
		}
		if units+n > limit {
			break
		}
		units += n
		bytes += utf8.RuneLen(r)
	}
	return units, bytes
}

// positionToOffset computes the byte offset of an LSP Position, clamped to
// the document.
func positionToOffset(document string, pos lsp.Position) int {
	lines := strings.Split(document, "\n")
	if int(pos.Line) >= len(lines) {
		return len(document)
	}
	offset := 0
	for i := uint32(0); i < pos.Line; i++ {
		offset += len(lines[i]) + 1
	}
	_, bytes := utf16Prefix(lines[pos.Line], pos.Character)
	return offset + bytes
}

// ApplyTextEdit applies a single LSP content change to document. A change
// without a range replaces the whole document.
func ApplyTextEdit(edit lsp.TextDocumentContentChangeEvent, document string) string {
	if edit.Range == nil {
		return edit.Text
	}
	startOffset := positionToOffset(document, edit.Range.Start)
	endOffset := positionToOffset(document, edit.Range.End)
	if endOffset < startOffset {
		startOffset, endOffset = endOffset, startOffset
	}

	// Splice the string at byte‑indices
	return document[:startOffset] + edit.Text + document[endOffset:]
}
