package server

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"laravells/internal/config"
	"laravells/internal/manager"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	folders := initialFolders(params)

	s.mu.Lock()
	s.folders = folders
	s.options = params.InitializationOptions
	base := s.config
	s.mu.Unlock()

	// Config: defaults < workspace file < initializationOptions
	configPath := ""
	if len(folders) > 0 {
		if root, err := manager.URIToPath(folders[0].URI); err == nil {
			configPath = filepath.Join(root, config.FileName)
		}
	}
	if configPath != "" {
		fileConfig, err := config.LoadFile(configPath)
		switch {
		case err == nil:
			base = fileConfig
			s.logger.Infof("loaded %s", configPath)
		case errors.Is(err, fs.ErrNotExist):
		default:
			s.logger.Warningf("ignoring %s: %v", configPath, err)
		}
	}

	cfg, err := config.Overlay(base, params.InitializationOptions)
	if err != nil {
		return nil, fmt.Errorf("invalid initializationOptions: %w", err)
	}
	s.setConfig(cfg)
	s.logger.Infof("config: %+v", cfg)

	if configPath != "" {
		s.watchConfig(configPath)
	}

	syncKind := protocol.TextDocumentSyncKindIncremental

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{">"},
		ResolveProvider:   &protocol.False,
	}
	capabilities.Workspace = &protocol.ServerCapabilitiesWorkspace{
		WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
			Supported:           &protocol.True,
			ChangeNotifications: &protocol.BoolOrString{Value: true},
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

// initialFolders prefers the client's workspace folders and falls back to
// the deprecated root URI and root path.
func initialFolders(params *protocol.InitializeParams) []protocol.WorkspaceFolder {
	if len(params.WorkspaceFolders) > 0 {
		return append([]protocol.WorkspaceFolder(nil), params.WorkspaceFolders...)
	}
	if params.RootURI != nil && *params.RootURI != "" {
		uri := *params.RootURI
		return []protocol.WorkspaceFolder{{URI: uri, Name: path.Base(uri)}}
	}
	if params.RootPath != nil && *params.RootPath != "" {
		return []protocol.WorkspaceFolder{{
			URI:  pathToURI(*params.RootPath),
			Name: filepath.Base(*params.RootPath),
		}}
	}
	return nil
}

func (s *Server) watchConfig(configPath string) {
	s.stopWatcher()

	w, err := config.Watch(configPath, func(fileConfig config.Config, err error) {
		if err != nil {
			s.logger.Warningf("keeping current config: %v", err)
			return
		}
		s.mu.RLock()
		options := s.options
		s.mu.RUnlock()

		cfg, err := config.Overlay(fileConfig, options)
		if err != nil {
			s.logger.Warningf("keeping current config: %v", err)
			return
		}
		s.setConfig(cfg)
		s.logger.Infof("reloaded %s", configPath)
	})
	if err != nil {
		s.logger.Warningf("not watching %s: %v", configPath, err)
		return
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	s.logger.Info("client initialized")
	context.Notify(protocol.ServerWindowLogMessage, protocol.LogMessageParams{
		Type:    protocol.MessageTypeInfo,
		Message: "[Laravel LSP] server initialized!",
	})
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.stopWatcher()
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) workspaceDidChangeWorkspaceFolders(
	context *glsp.Context,
	params *protocol.DidChangeWorkspaceFoldersParams,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]struct{}, len(params.Event.Removed))
	for _, f := range params.Event.Removed {
		removed[f.URI] = struct{}{}
	}

	folders := s.folders[:0:0]
	for _, f := range s.folders {
		if _, ok := removed[f.URI]; !ok {
			folders = append(folders, f)
		}
	}
	s.folders = append(folders, params.Event.Added...)
	s.logger.Infof("workspace folders: %d", len(s.folders))
	return nil
}
