// Package grammar provides the PHP tree-sitter grammar used by every parse.
package grammar

import (
	"errors"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// ErrGrammarUnavailable is returned when the compiled grammar cannot be loaded.
var ErrGrammarUnavailable = errors.New("grammar: php grammar unavailable")

// Grammar is a read-only handle on the compiled PHP grammar.
type Grammar struct {
	lang *sitter.Language
}

var (
	once   sync.Once
	loaded *Grammar
	err    error
)

// Load returns the process-wide grammar. The grammar is compiled in and loaded
// on the first call; later calls return the same handle.
func Load() (*Grammar, error) {
	once.Do(func() {
		lang := php.GetLanguage()
		if lang == nil {
			err = ErrGrammarUnavailable
			return
		}
		loaded = &Grammar{lang: lang}
	})
	return loaded, err
}

// Language exposes the underlying tree-sitter language.
func (g *Grammar) Language() *sitter.Language {
	return g.lang
}

// NewParser creates a tree-sitter parser bound to the grammar.
// Parsers are not safe for concurrent use.
func (g *Grammar) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(g.lang)
	return p
}
