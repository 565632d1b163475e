// Package testutil holds hand-rolled doubles shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

// DummyWebClient serves canned responses by URL and records every request it
// sees.
type DummyWebClient struct {
	mu        sync.Mutex
	Responses map[string]*model.Response
	Errors    map[string]error
	Requests  []*model.Request
	Closed    bool
}

func NewDummyWebClient() *DummyWebClient {
	return &DummyWebClient{
		Responses: map[string]*model.Response{},
		Errors:    map[string]error{},
	}
}

// SetHTML registers a 200 text/html response for url.
func (d *DummyWebClient) SetHTML(url, html string) {
	d.Responses[url] = &model.Response{
		Body:       []byte(html),
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
		StatusCode: http.StatusOK,
		FetchedAt:  time.Now(),
	}
}

// SetStatus registers an empty response with the given status code.
func (d *DummyWebClient) SetStatus(url string, code int) {
	d.Responses[url] = &model.Response{
		Headers:    http.Header{},
		StatusCode: code,
		FetchedAt:  time.Now(),
	}
}

func (d *DummyWebClient) Do(_ context.Context, req *model.Request) (*model.Response, error) {
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if err, ok := d.Errors[req.URL]; ok {
		return nil, err
	}
	if resp, ok := d.Responses[req.URL]; ok {
		out := *resp
		out.Request = req
		return &out, nil
	}
	return nil, fmt.Errorf("no canned response for %s", req.URL)
}

func (d *DummyWebClient) Close() error {
	d.Closed = true
	return nil
}

// RequestCount reports how many requests hit the given URL.
func (d *DummyWebClient) RequestCount(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, req := range d.Requests {
		if req.URL == url {
			n++
		}
	}
	return n
}

// MemoryLogger collects log lines for assertions.
type MemoryLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

type LogEntry struct {
	Level  string
	Msg    string
	Fields []logging.Field
}

func (m *MemoryLogger) record(level, msg string, fields []logging.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}

func (m *MemoryLogger) Debug(msg string, fields ...logging.Field) { m.record("debug", msg, fields) }
func (m *MemoryLogger) Info(msg string, fields ...logging.Field)  { m.record("info", msg, fields) }
func (m *MemoryLogger) Warn(msg string, fields ...logging.Field)  { m.record("warn", msg, fields) }
func (m *MemoryLogger) Error(msg string, fields ...logging.Field) { m.record("error", msg, fields) }
func (m *MemoryLogger) With(...logging.Field) logging.Logger      { return m }

// HasMessage reports whether any entry carries the given message.
func (m *MemoryLogger) HasMessage(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Msg == msg {
			return true
		}
	}
	return false
}
