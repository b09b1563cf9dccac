// Package parser turns PHP source into immutable syntax trees and locates
// nodes by cursor position.
package parser

import (
	"context"
	"errors"
	"fmt"

	"laravells/internal/grammar"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrPoolClosed is returned by ParserPool.Parse after Close.
var ErrPoolClosed = errors.New("parser: pool closed")

// Parse builds a tree for source. It never fails on malformed input: syntax
// errors end up as ERROR or missing nodes in the returned tree.
func Parse(source []byte, g *grammar.Grammar) *Tree {
	p := g.NewParser()
	defer p.Close()
	return parseWith(context.Background(), p, source)
}

func parseWith(ctx context.Context, p *sitter.Parser, source []byte) *Tree {
	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil || tree == nil {
		return errorTree(source)
	}
	defer tree.Close()
	return newTree(tree.RootNode(), source)
}

// ParserPool maintains a fixed set of tree-sitter parsers so that concurrent
// requests never share one. Only parsers are reused; every Parse produces a
// fresh Tree.
type ParserPool struct {
	pool chan *sitter.Parser
}

// NewParserPool creates a ParserPool with n parsers for the grammar.
func NewParserPool(n int, g *grammar.Grammar) *ParserPool {
	if n < 1 {
		n = 1
	}
	pp := &ParserPool{
		pool: make(chan *sitter.Parser, n),
	}
	for i := 0; i < n; i++ {
		pp.pool <- g.NewParser()
	}
	return pp
}

// Parse acquires a parser from the pool and parses document with it. It only
// blocks while every parser is in use, and gives up when ctx is done.
func (pp *ParserPool) Parse(ctx context.Context, document []byte) (*Tree, error) {
	var p *sitter.Parser
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case got, ok := <-pp.pool:
		if !ok {
			return nil, ErrPoolClosed
		}
		p = got
	}
	defer func() { pp.pool <- p }()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse aborted: %w", err)
	}
	return parseWith(context.Background(), p, document), nil
}

// Close releases all parsers in the pool. It waits for parsers that are
// currently in use to be returned.
func (pp *ParserPool) Close() error {
	for i := 0; i < cap(pp.pool); i++ {
		p, ok := <-pp.pool
		if !ok {
			return ErrPoolClosed
		}
		p.Close()
	}
	close(pp.pool)
	return nil
}
