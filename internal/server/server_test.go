package server_test

import (
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"laravells/internal/grammar"
	"laravells/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type notification struct {
	method string
	params any
}

type fixture struct {
	t       *testing.T
	root    string
	rootURI string
	srv     *server.Server
	h       *protocol.Handler
	ctx     *glsp.Context

	mu       sync.Mutex
	notified []notification
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	g, err := grammar.Load()
	require.NoError(t, err)
	f := &fixture{
		t:       t,
		root:    root,
		rootURI: fileURI(root),
		srv:     server.NewServer(g, server.Options{Version: "test", Parsers: 2}),
	}
	f.h = f.srv.Handler()
	f.ctx = &glsp.Context{
		Notify: func(method string, params any) {
			f.mu.Lock()
			f.notified = append(f.notified, notification{method, params})
			f.mu.Unlock()
		},
	}
	t.Cleanup(func() { require.NoError(t, f.srv.Close()) })
	return f
}

func (f *fixture) initialize(options any) (protocol.InitializeResult, error) {
	f.t.Helper()
	result, err := f.h.Initialize(f.ctx, &protocol.InitializeParams{
		RootURI:               &f.rootURI,
		InitializationOptions: options,
	})
	if err != nil {
		return protocol.InitializeResult{}, err
	}
	init, ok := result.(protocol.InitializeResult)
	require.True(f.t, ok, "Initialize() type=%T", result)
	return init, nil
}

func (f *fixture) writeFile(rel, content string) string {
	f.t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0644))
	return fileURI(path)
}

func (f *fixture) open(uri, text string) {
	f.t.Helper()
	require.NoError(f.t, f.h.TextDocumentDidOpen(f.ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "php", Version: 1, Text: text},
	}))
}

func (f *fixture) definition(uri string, line, character uint32) any {
	f.t.Helper()
	result, err := f.h.TextDocumentDefinition(f.ctx, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: line, Character: character},
		},
	})
	require.NoError(f.t, err)
	return result
}

func (f *fixture) location(rel string) protocol.Location {
	return protocol.Location{
		URI: f.rootURI + "/" + rel,
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 0},
		},
	}
}

// unavailableLookups reads the resolutions counter for lookups that never
// reached the resolver.
func unavailableLookups(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "laravel_ls_resolutions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == "unavailable" {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	f := newFixture(t)

	init, err := f.initialize(nil)
	require.NoError(t, err)

	caps := init.Capabilities
	assert.Equal(t, true, caps.DefinitionProvider)
	require.NotNil(t, caps.CompletionProvider)
	assert.Equal(t, []string{">"}, caps.CompletionProvider.TriggerCharacters)
	require.NotNil(t, caps.CompletionProvider.ResolveProvider)
	assert.False(t, *caps.CompletionProvider.ResolveProvider)
	require.NotNil(t, caps.Workspace)
	require.NotNil(t, caps.Workspace.WorkspaceFolders)
	assert.True(t, *caps.Workspace.WorkspaceFolders.Supported)

	require.NotNil(t, init.ServerInfo)
	assert.Equal(t, server.Name, init.ServerInfo.Name)
	assert.Equal(t, "test", *init.ServerInfo.Version)

	root, ok := f.srv.WorkspaceRoot()
	require.True(t, ok)
	assert.Equal(t, f.rootURI, root.URI)
}

func TestInitializeRejectsInvalidOptions(t *testing.T) {
	f := newFixture(t)

	_, err := f.initialize(map[string]any{"target_symbol": ""})
	assert.Error(t, err)
}

func TestInitializedLogsToClient(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.h.Initialized(f.ctx, &protocol.InitializedParams{}))

	require.Len(t, f.notified, 1)
	assert.Equal(t, "window/logMessage", f.notified[0].method)
	params, ok := f.notified[0].params.(protocol.LogMessageParams)
	require.True(t, ok)
	assert.Equal(t, protocol.MessageTypeInfo, params.Type)
	assert.Equal(t, "[Laravel LSP] server initialized!", params.Message)
}

func TestDefinition(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(nil)
	require.NoError(t, err)

	uri := fileURI(filepath.Join(f.root, "routes", "web.php"))
	f.open(uri, "<?php view('some.view');")

	t.Run("Inside literal", func(t *testing.T) {
		assert.Equal(t, f.location("resources/views/some/view.blade.php"), f.definition(uri, 0, 12))
	})

	t.Run("Outside call", func(t *testing.T) {
		assert.Nil(t, f.definition(uri, 0, 3))
	})

	t.Run("Past end of file", func(t *testing.T) {
		assert.Nil(t, f.definition(uri, 7, 0))
	})

	t.Run("After incremental change", func(t *testing.T) {
		require.NoError(t, f.h.TextDocumentDidChange(f.ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
				Version:                2,
			},
			ContentChanges: []any{
				protocol.TextDocumentContentChangeEvent{
					Range: &protocol.Range{
						Start: protocol.Position{Line: 0, Character: 12},
						End:   protocol.Position{Line: 0, Character: 21},
					},
					Text: "home",
				},
			},
		}))
		assert.Equal(t, f.location("resources/views/home.blade.php"), f.definition(uri, 0, 13))
	})

	t.Run("Falls back to disk after close", func(t *testing.T) {
		require.NoError(t, f.h.TextDocumentDidClose(f.ctx, &protocol.DidCloseTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		}))
		assert.Nil(t, f.definition(uri, 0, 13), "file does not exist on disk")

		diskURI := f.writeFile("app/Http/Controllers/HomeController.php", "<?php\nreturn view('pages.welcome');\n")
		assert.Equal(t, f.location("resources/views/pages/welcome.blade.php"), f.definition(diskURI, 1, 15))
	})
}

func TestDefinitionUnicodePosition(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(nil)
	require.NoError(t, err)

	uri := fileURI(filepath.Join(f.root, "app.php"))
	f.open(uri, "<?php $é = view('über.seite');")

	// Character counts UTF-16 units; "ü" is one unit but two bytes.
	assert.Equal(t, f.location("resources/views/%C3%BCber/seite.blade.php"), f.definition(uri, 0, 19))
}

func TestDefinitionWithoutWorkspace(t *testing.T) {
	f := newFixture(t)
	_, err := f.h.Initialize(f.ctx, &protocol.InitializeParams{})
	require.NoError(t, err)

	uri := fileURI(filepath.Join(f.root, "web.php"))
	f.open(uri, "<?php view('some.view');")
	assert.Nil(t, f.definition(uri, 0, 12))
}

func TestDefinitionRespectsDocumentGlobs(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize(map[string]any{"documents": []string{"app/**/*.php"}})
	require.NoError(t, err)

	selected := fileURI(filepath.Join(f.root, "app", "Http", "home.php"))
	ignored := fileURI(filepath.Join(f.root, "routes", "web.php"))
	f.open(selected, "<?php view('a.b');")
	f.open(ignored, "<?php view('a.b');")

	assert.Equal(t, f.location("resources/views/a/b.blade.php"), f.definition(selected, 0, 12))

	before := unavailableLookups(t)
	assert.Nil(t, f.definition(ignored, 0, 12))
	assert.Equal(t, before+1, unavailableLookups(t), "rejected documents are counted")
}

func TestWorkspaceConfigFile(t *testing.T) {
	f := newFixture(t)
	f.writeFile(".laravel-ls.toml", "target_symbol = \"render\"\nroot_dir = \"templates\"\n")

	_, err := f.initialize(map[string]any{"extension": "twig"})
	require.NoError(t, err)

	cfg := f.srv.Config()
	assert.Equal(t, "render", cfg.TargetSymbol)
	assert.Equal(t, "templates", cfg.RootDir)
	assert.Equal(t, "twig", cfg.Extension)

	uri := fileURI(filepath.Join(f.root, "web.php"))
	f.open(uri, "<?php render('a.b'); view('c.d');")
	assert.Equal(t, f.location("templates/a/b.twig"), f.definition(uri, 0, 14))
	assert.Nil(t, f.definition(uri, 0, 27))

	t.Run("Reload on change", func(t *testing.T) {
		f.writeFile(".laravel-ls.toml", "target_symbol = \"view\"\n")

		assert.Eventually(t, func() bool {
			return f.srv.Config().TargetSymbol == "view"
		}, 5*time.Second, 10*time.Millisecond)

		cfg := f.srv.Config()
		assert.Equal(t, "resources/views", cfg.RootDir)
		assert.Equal(t, "twig", cfg.Extension, "initializationOptions still apply")
	})

	require.NoError(t, f.h.Shutdown(f.ctx))
}

func TestWorkspaceFolders(t *testing.T) {
	f := newFixture(t)
	other := "file:///elsewhere"

	_, err := f.h.Initialize(f.ctx, &protocol.InitializeParams{
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: f.rootURI, Name: "app"}},
	})
	require.NoError(t, err)

	require.NoError(t, f.h.WorkspaceDidChangeWorkspaceFolders(f.ctx, &protocol.DidChangeWorkspaceFoldersParams{
		Event: protocol.WorkspaceFoldersChangeEvent{
			Added:   []protocol.WorkspaceFolder{{URI: other, Name: "other"}},
			Removed: []protocol.WorkspaceFolder{{URI: f.rootURI, Name: "app"}},
		},
	}))

	root, ok := f.srv.WorkspaceRoot()
	require.True(t, ok)
	assert.Equal(t, other, root.URI)

	require.NoError(t, f.h.WorkspaceDidChangeWorkspaceFolders(f.ctx, &protocol.DidChangeWorkspaceFoldersParams{
		Event: protocol.WorkspaceFoldersChangeEvent{
			Removed: []protocol.WorkspaceFolder{{URI: other}},
		},
	}))
	_, ok = f.srv.WorkspaceRoot()
	assert.False(t, ok)
}

func TestCompletionIsEmpty(t *testing.T) {
	f := newFixture(t)

	result, err := f.h.TextDocumentCompletion(f.ctx, &protocol.CompletionParams{})
	require.NoError(t, err)

	list, ok := result.(protocol.CompletionList)
	require.True(t, ok)
	assert.False(t, list.IsIncomplete)
	assert.Empty(t, list.Items)
}
