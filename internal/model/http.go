package model

import (
	"net/http"
	"time"
)

// Request is a transport-agnostic HTTP request passed to a WebClient backend.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the materialized result of executing a Request.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}
