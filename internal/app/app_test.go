package app

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/pagelens/pagelens/internal/assets"
	"github.com/pagelens/pagelens/internal/chat"
	"github.com/pagelens/pagelens/internal/intent"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/page"
	"github.com/pagelens/pagelens/internal/scan"
	"github.com/pagelens/pagelens/internal/tools"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	if html, ok := f.pages[url]; ok {
		return html, nil
	}
	return "", fmt.Errorf("no page for %s", url)
}

type memPersister struct {
	saved    []model.Snapshot
	snapshot model.Snapshot
	loadErr  error
}

func (m *memPersister) Save(s model.Snapshot) error {
	m.saved = append(m.saved, s)
	return nil
}

func (m *memPersister) Load() (model.Snapshot, error) {
	return m.snapshot, m.loadErr
}

func newTestSession(t *testing.T, pages map[string]string, persister Persister) *Session {
	t.Helper()

	logger := logging.NopLogger{}
	results := scan.NewResultStore()
	registry := assets.NewRegistry(logger)
	analyzer := page.NewAnalyzer(page.Config{}, logger)
	scanner := scan.NewService(scan.Config{}, &fakeFetcher{pages: pages}, analyzer, results, registry, logger)

	orchestrator := tools.NewOrchestrator(nil, logger)
	tools.RegisterBuiltins(orchestrator, tools.Deps{
		Scanner: scanner,
		Results: results,
		Assets:  registry,
		Logger:  logger,
	})

	session, err := NewSession(Deps{
		Classifier:   intent.NewRuleClassifier(intent.DefaultRules(), logger),
		Responder:    chat.NewResponder(rand.New(rand.NewSource(7))),
		Conversation: chat.NewStore(),
		Orchestrator: orchestrator,
		Scanner:      scanner,
		Results:      results,
		Registry:     registry,
		Persister:    persister,
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return session
}

func TestHandleMessageGenericFallback(t *testing.T) {
	session := newTestSession(t, nil, nil)

	messages, err := session.HandleMessage(context.Background(), "good morning")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want user + generic reply", len(messages))
	}
	if messages[0].Role != model.RoleUser || messages[1].Role != model.RoleAssistant {
		t.Error("roles wrong")
	}
	if messages[1].ToolCall != nil {
		t.Error("generic reply must not carry a tool call")
	}
}

func TestHandleMessageRunsTool(t *testing.T) {
	session := newTestSession(t, map[string]string{
		"https://example.com": "<html><head><title>Example</title></head><body></body></html>",
	}, nil)

	messages, err := session.HandleMessage(context.Background(), "scan https://example.com")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	// user, acknowledgement, outcome
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}

	ack := messages[1]
	if ack.ToolCall == nil || ack.ToolCall.Status != model.ToolCallPending {
		t.Errorf("ack message = %+v", ack.ToolCall)
	}

	outcome := messages[2]
	if outcome.ToolCall == nil || outcome.ToolCall.Status != model.ToolCallCompleted {
		t.Errorf("outcome call = %+v", outcome.ToolCall)
	}
	if outcome.ToolResult == nil || outcome.ToolResult.Error != "" {
		t.Errorf("outcome result = %+v", outcome.ToolResult)
	}
}

func TestHandleMessageToolFailureSurfacesAsMessage(t *testing.T) {
	session := newTestSession(t, nil, nil)

	messages, err := session.HandleMessage(context.Background(), "scan https://unreachable.example.com")
	if err != nil {
		t.Fatalf("tool failure must not become a handler error: %v", err)
	}

	outcome := messages[len(messages)-1]
	// scanPages itself completes; the per-URL failure lives in the payload.
	if outcome.ToolCall == nil || outcome.ToolCall.Status != model.ToolCallCompleted {
		t.Errorf("outcome = %+v", outcome.ToolCall)
	}
}

func TestHandleMessageFallsBackToCurrentPage(t *testing.T) {
	session := newTestSession(t, map[string]string{
		"https://example.com": `<html lang="en"><head><title>Example</title></head><body><h1>Hi</h1></body></html>`,
	}, nil)

	scanned := session.StartScan(context.Background(), []string{"https://example.com"}, nil)
	if len(scanned) != 1 || scanned[0].Status != model.ScanCompleted {
		t.Fatalf("scan results = %+v", scanned)
	}

	messages, err := session.HandleMessage(context.Background(), "run an accessibility audit")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	outcome := messages[len(messages)-1]
	if outcome.ToolCall == nil || outcome.ToolCall.Status != model.ToolCallCompleted {
		t.Fatalf("outcome = %+v", outcome.ToolCall)
	}
	if url, _ := outcome.ToolCall.Parameters["url"].(string); url != "https://example.com" {
		t.Errorf("url parameter = %v, want the scanned page", outcome.ToolCall.Parameters["url"])
	}
}

func TestHandleMessageWithoutScannedPageStillFails(t *testing.T) {
	session := newTestSession(t, nil, nil)

	messages, err := session.HandleMessage(context.Background(), "run an accessibility audit")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	outcome := messages[len(messages)-1]
	if outcome.ToolCall == nil || outcome.ToolCall.Status != model.ToolCallFailed {
		t.Errorf("outcome = %+v, want failed with no page to fall back to", outcome.ToolCall)
	}
}

func TestStartScanAppendsSummaries(t *testing.T) {
	persister := &memPersister{}
	session := newTestSession(t, map[string]string{
		"https://example.com": "<html><head><title>Example</title></head><body></body></html>",
	}, persister)

	results := session.StartScan(context.Background(), []string{"https://example.com"}, nil)
	if len(results) != 1 || results[0].Status != model.ScanCompleted {
		t.Fatalf("results = %+v", results)
	}

	history := session.History()
	if len(history) != 1 {
		t.Fatalf("got %d messages, want one scan summary", len(history))
	}
	if history[0].Role != model.RoleAssistant {
		t.Error("summary should be an assistant message")
	}
	if len(persister.saved) == 0 {
		t.Error("scan should persist the session")
	}
}

func TestUpdateAssetStatusPersistsUnderLock(t *testing.T) {
	persister := &memPersister{}
	session := newTestSession(t, nil, persister)
	session.registry.Register("https://example.com/a.png", model.AssetImage)

	err := session.UpdateAssetStatus("https://example.com/a.png", model.AssetScanned, 10, nil)
	if err != nil {
		t.Fatalf("UpdateAssetStatus: %v", err)
	}
	if len(persister.saved) != 1 {
		t.Fatalf("saved %d snapshots, want 1", len(persister.saved))
	}
	last := persister.saved[len(persister.saved)-1]
	if len(last.Assets) != 1 || last.Assets[0].Status != model.AssetScanned {
		t.Errorf("persisted assets = %+v", last.Assets)
	}

	err = session.UpdateAssetStatus("https://example.com/nope.png", model.AssetScanned, 0, nil)
	if err == nil {
		t.Error("unknown asset should error")
	}
	if len(persister.saved) != 1 {
		t.Error("a failed update must not persist")
	}
}

func TestRestoreLoadsPersistedState(t *testing.T) {
	persister := &memPersister{
		snapshot: model.Snapshot{
			ScanResults: []model.ScanEntry{
				{URL: "https://example.com", Result: model.ScanResult{URL: "https://example.com", Status: model.ScanCompleted, Title: "Restored"}},
			},
			ChatHistory: []model.ChatMessage{chat.NewUserMessage("old message")},
			Assets: []model.Asset{
				{URL: "https://example.com/a.png", Type: model.AssetImage, Status: model.AssetPending},
			},
		},
	}
	session := newTestSession(t, nil, persister)
	session.Restore()

	snapshot := session.Snapshot()
	if len(snapshot.ScanResults) != 1 || snapshot.ScanResults[0].Result.Title != "Restored" {
		t.Errorf("scan results = %+v", snapshot.ScanResults)
	}
	if len(snapshot.ChatHistory) != 1 {
		t.Errorf("chat history = %+v", snapshot.ChatHistory)
	}
	if len(snapshot.Assets) != 1 {
		t.Errorf("assets = %+v", snapshot.Assets)
	}
}

func TestRestoreToleratesLoadFailure(t *testing.T) {
	persister := &memPersister{loadErr: fmt.Errorf("disk on fire")}
	session := newTestSession(t, nil, persister)

	session.Restore()

	snapshot := session.Snapshot()
	if len(snapshot.ScanResults) != 0 || len(snapshot.ChatHistory) != 0 {
		t.Error("failed restore must leave the session empty, not broken")
	}
}
