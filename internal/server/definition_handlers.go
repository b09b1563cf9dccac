package server

import (
	"context"
	"time"

	"laravells/internal/metrics"
	"laravells/internal/resolver"
	"laravells/internal/sitteradapter"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDefinition(
	ctx *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	start := time.Now()
	uri := params.TextDocument.URI

	root, ok := s.WorkspaceRoot()
	if !ok {
		s.logger.Debug("definition: no workspace folder")
		metrics.RecordResolution(metrics.OutcomeUnavailable, 0)
		return nil, nil
	}

	cfg := s.Config()
	if rel, err := relativePath(root.URI, uri); err == nil && !cfg.MatchesDocument(rel) {
		s.logger.Debugf("definition: %s not selected by %v", rel, cfg.Documents)
		metrics.RecordResolution(metrics.OutcomeUnavailable, 0)
		return nil, nil
	}

	doc, err := s.manager.Load(uri)
	if err != nil {
		s.logger.Debugf("definition: %v", err)
		metrics.RecordResolution(metrics.OutcomeUnavailable, 0)
		return nil, nil
	}

	tree, err := s.parsers.Parse(context.Background(), doc)
	if err != nil {
		s.logger.Debugf("definition: %v", err)
		metrics.RecordResolution(metrics.OutcomeUnavailable, 0)
		return nil, nil
	}

	pt := sitteradapter.LSPPositionToPoint(string(doc), params.Position)
	relPath, outcome := resolver.Explain(tree, pt, cfg)
	metrics.RecordResolution(outcome.String(), time.Since(start))
	if outcome != resolver.Resolved {
		s.logger.Debugf("definition: %s at %s: %s", uri, pt, outcome)
		return nil, nil
	}

	target, err := joinURI(root.URI, relPath)
	if err != nil {
		s.logger.Debugf("definition: %v", err)
		return nil, nil
	}

	s.logger.Debugf("definition: %s at %s -> %s", uri, pt, target)
	return protocol.Location{
		URI: target,
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 0},
		},
	}, nil
}

// Completion is not implemented; the provider is advertised so that clients
// keep sending requests once it is.
func (s *Server) textDocumentCompletion(
	ctx *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	return protocol.CompletionList{
		IsIncomplete: false,
		Items:        []protocol.CompletionItem{},
	}, nil
}
