// Package app wires the scanner, classifier, orchestrator and stores into one
// conversational session. One scan or chat turn runs to completion before the
// next is accepted.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/pagelens/pagelens/internal/assets"
	"github.com/pagelens/pagelens/internal/chat"
	"github.com/pagelens/pagelens/internal/intent"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/scan"
	"github.com/pagelens/pagelens/internal/tools"
)

// Persister stores and restores the session state. Implementations must treat
// a missing or unreadable snapshot as empty, never as fatal.
type Persister interface {
	Save(snapshot model.Snapshot) error
	Load() (model.Snapshot, error)
}

// Session owns the shared state of one scanning conversation.
type Session struct {
	mu sync.Mutex

	// currentURL is the most recently scanned page. Analysis requests that
	// name no URL of their own run against it.
	currentURL string

	classifier   intent.Classifier
	responder    *chat.Responder
	conversation *chat.Store
	orchestrator *tools.Orchestrator
	scanner      *scan.Service
	results      *scan.ResultStore
	registry     *assets.Registry
	persister    Persister
	logger       logging.Logger
}

type Deps struct {
	Classifier   intent.Classifier
	Responder    *chat.Responder
	Conversation *chat.Store
	Orchestrator *tools.Orchestrator
	Scanner      *scan.Service
	Results      *scan.ResultStore
	Registry     *assets.Registry
	Persister    Persister
	Logger       logging.Logger
}

func NewSession(deps Deps) (*Session, error) {
	if deps.Classifier == nil || deps.Orchestrator == nil || deps.Scanner == nil {
		return nil, fmt.Errorf("app: classifier, orchestrator and scanner are required")
	}
	if deps.Responder == nil {
		deps.Responder = chat.NewResponder(nil)
	}
	if deps.Conversation == nil {
		deps.Conversation = chat.NewStore()
	}
	return &Session{
		classifier:   deps.Classifier,
		responder:    deps.Responder,
		conversation: deps.Conversation,
		orchestrator: deps.Orchestrator,
		scanner:      deps.Scanner,
		results:      deps.Results,
		registry:     deps.Registry,
		persister:    deps.Persister,
		logger:       deps.Logger.With(logging.Field{Key: "component", Value: "session"}),
	}, nil
}

// Restore loads persisted state into the live stores. Malformed or missing
// state degrades to an empty session.
func (s *Session) Restore() {
	if s.persister == nil {
		return
	}
	snapshot, err := s.persister.Load()
	if err != nil {
		s.logger.Warn("could not restore previous session, starting fresh",
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results.Load(snapshot.ScanResults)
	s.conversation.Load(snapshot.ChatHistory)
	s.registry.Load(snapshot.Assets)
	s.logger.Info("restored session",
		logging.Field{Key: "scan_results", Value: len(snapshot.ScanResults)},
		logging.Field{Key: "messages", Value: len(snapshot.ChatHistory)},
		logging.Field{Key: "assets", Value: len(snapshot.Assets)})
}

// HandleMessage processes one user turn: record the message, classify it,
// run the implied tool if any, and record the assistant's replies. It returns
// the messages appended during the turn, user message included.
func (s *Session) HandleMessage(ctx context.Context, text string) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var appended []model.ChatMessage
	add := func(msg model.ChatMessage) {
		s.conversation.Append(msg)
		appended = append(appended, msg)
	}

	add(chat.NewUserMessage(text))

	classification, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return appended, fmt.Errorf("classify input: %w", err)
	}

	if classification == nil {
		add(chat.NewAssistantMessage(s.responder.Generic(), nil, nil))
		s.persist()
		return appended, nil
	}

	req := classification.Request
	if urlFallbackTools[req.Name] && s.currentURL != "" {
		if _, ok := req.Parameters["url"]; !ok {
			if req.Parameters == nil {
				req.Parameters = map[string]any{}
			}
			req.Parameters["url"] = s.currentURL
		}
	}

	call := s.orchestrator.NewCall(req)
	add(chat.NewAssistantMessage(s.responder.Acknowledge(classification.Category), &call, nil))

	finished, result := s.orchestrator.Dispatch(ctx, call)
	if finished.Status == model.ToolCallCompleted {
		s.noteScannedFromCall(finished)
	}
	if finished.Status == model.ToolCallDeclined {
		add(chat.NewAssistantMessage("That operation was declined.", &finished, nil))
		s.persist()
		return appended, nil
	}

	failed := finished.Status == model.ToolCallFailed
	errMsg := ""
	if result != nil {
		errMsg = result.Error
	}
	add(chat.NewAssistantMessage(
		s.responder.ToolOutcome(finished.Name, failed, errMsg),
		&finished, result))

	s.persist()
	return appended, nil
}

// StartScan scans the given URLs and appends a summary message per URL. The
// returned results are in input order; a failing URL does not stop the rest.
func (s *Session) StartScan(ctx context.Context, urls []string, progress scan.ProgressFunc) []model.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.scanner.ScanPages(ctx, urls, progress)
	for _, r := range results {
		content := s.responder.ScanSummary(
			r.URL, r.Title, len(r.Links), len(r.Images),
			r.Status == model.ScanFailed, r.Error)
		s.conversation.Append(chat.NewAssistantMessage(content, nil, nil))
		if r.Status == model.ScanCompleted {
			s.currentURL = r.URL
		}
	}
	s.persist()
	return results
}

// StopScan asks an in-flight batch to halt after the current URL.
func (s *Session) StopScan() {
	s.scanner.Stop()
}

// Snapshot exposes the read-only export triple.
func (s *Session) Snapshot() model.Snapshot {
	return model.Snapshot{
		ScanResults: s.results.All(),
		ChatHistory: s.conversation.History(),
		Assets:      s.registry.List(),
	}
}

// History returns the conversation log.
func (s *Session) History() []model.ChatMessage {
	return s.conversation.History()
}

// Assets returns the discovered assets in insertion order.
func (s *Session) Assets() []model.Asset {
	return s.registry.List()
}

// UpdateAssetStatus forwards a follow-up status change to the registry. The
// change and the snapshot it persists happen under one lock so a concurrent
// turn cannot interleave between them.
func (s *Session) UpdateAssetStatus(url string, status model.AssetStatus, size int64, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.UpdateStatus(url, status, size, metadata); err != nil {
		return err
	}
	s.persist()
	return nil
}

// urlFallbackTools lists the operations whose url parameter may fall back to
// the most recently scanned page.
var urlFallbackTools = map[string]bool{
	"performSeoAnalysis":  true,
	"checkAccessibility":  true,
	"analyzePerformance":  true,
	"detectTechStack":     true,
	"summarizePage":       true,
	"extractDataFromPage": true,
	"fetchSitemap":        true,
}

// noteScannedFromCall records the page a completed call just scanned so later
// turns can refer to it implicitly.
func (s *Session) noteScannedFromCall(call model.ToolCall) {
	switch call.Name {
	case "scanPages":
		if urls, ok := call.Parameters["urls"].([]any); ok && len(urls) > 0 {
			if u, ok := urls[len(urls)-1].(string); ok && u != "" {
				s.currentURL = u
			}
		}
	default:
		if urlFallbackTools[call.Name] {
			if u, ok := call.Parameters["url"].(string); ok && u != "" {
				s.currentURL = u
			}
		}
	}
}

func (s *Session) persist() {
	if s.persister == nil {
		return
	}
	snapshot := model.Snapshot{
		ScanResults: s.results.All(),
		ChatHistory: s.conversation.History(),
		Assets:      s.registry.List(),
	}
	if err := s.persister.Save(snapshot); err != nil {
		s.logger.Warn("failed to persist session state",
			logging.Field{Key: "error", Value: err.Error()})
	}
}
