// Package server implements the language server: it tracks open documents and
// workspace folders and answers definition requests with the resolver.
package server

import (
	"sync"

	"laravells/internal/config"
	"laravells/internal/grammar"
	"laravells/internal/manager"
	"laravells/internal/parser"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
)

// Name is reported to clients as the server name.
const Name = "laravel-ls"

type Server struct {
	version string
	handler *protocol.Handler
	logger  commonlog.Logger
	parsers *parser.ParserPool
	manager *manager.DocumentManager

	mu      sync.RWMutex
	folders []protocol.WorkspaceFolder
	options any
	config  config.Config
	watcher *config.Watcher
}

// Options configure a Server.
type Options struct {
	Version string
	// Parsers is the size of the parser pool.
	Parsers int
	// Config is the starting configuration, before the workspace file and
	// the client's initializationOptions are applied.
	Config *config.Config
}

func NewServer(g *grammar.Grammar, opts Options) *Server {
	if opts.Parsers <= 0 {
		opts.Parsers = 4
	}
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	ls := &Server{
		version: opts.Version,
		logger:  commonlog.GetLogger(Name + ".server"),
		parsers: parser.NewParserPool(opts.Parsers, g),
		manager: manager.NewDocumentManager(),
		config:  cfg,
	}
	ls.handler = &protocol.Handler{
		Initialize:                         ls.initialize,
		Initialized:                        ls.initialized,
		Shutdown:                           ls.shutdown,
		SetTrace:                           ls.setTrace,
		TextDocumentDidOpen:                ls.textDocumentDidOpen,
		TextDocumentDidChange:              ls.textDocumentDidChange,
		TextDocumentDidClose:               ls.textDocumentDidClose,
		TextDocumentDefinition:             ls.textDocumentDefinition,
		TextDocumentCompletion:             ls.textDocumentCompletion,
		WorkspaceDidChangeWorkspaceFolders: ls.workspaceDidChangeWorkspaceFolders,
	}
	return ls
}

// Handler returns the LSP handler table.
func (s *Server) Handler() *protocol.Handler {
	return s.handler
}

// Transport wraps the handler in a glsp server ready for RunStdio, RunTCP or
// RunWebSocket.
func (s *Server) Transport(debug bool) *glspserver.Server {
	return glspserver.NewServer(s.handler, Name, debug)
}

// Config returns the configuration currently in effect.
func (s *Server) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Server) setConfig(cfg config.Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

// WorkspaceRoot returns the first workspace folder, which is the project
// root that template paths are relative to.
func (s *Server) WorkspaceRoot() (protocol.WorkspaceFolder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.folders) == 0 {
		return protocol.WorkspaceFolder{}, false
	}
	return s.folders[0], true
}

// Close stops the config watcher and releases the parser pool.
func (s *Server) Close() error {
	s.stopWatcher()
	return s.parsers.Close()
}

func (s *Server) stopWatcher() {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w != nil {
		if err := w.Close(); err != nil {
			s.logger.Warningf("closing config watcher: %v", err)
		}
	}
}
