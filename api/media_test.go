// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
)

// roundTripFunc serves media requests without a network.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(request *http.Request) (*http.Response, error) {
	return f(request)
}

func mediaHandler(transport roundTripFunc) *Handler {
	client := NewMediaClient(0)
	client.Transport = transport
	return NewHandler(Config{
		Executor:    &fakeExecutor{},
		Collector:   fakeCollector{},
		MediaClient: client,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestMediaProxy(t *testing.T) {
	var fetched *http.Request
	handler := mediaHandler(func(request *http.Request) (*http.Response, error) {
		fetched = request
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"image/webp"}},
			Body:       io.NopCloser(strings.NewReader("GIF89a")),
		}, nil
	})

	recorder := serve(t, handler.Routes(), http.MethodGet, "/api/gif?url=https%3A%2F%2Fmedia.tenor.com%2Fx.gif", "")
	if recorder.Code != http.StatusOK || recorder.Body.String() != "GIF89a" {
		t.Fatalf("status = %d body = %q", recorder.Code, recorder.Body)
	}
	if got := recorder.Header().Get("Content-Type"); got != "image/webp" {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.HasPrefix(recorder.Header().Get("Cache-Control"), "public, max-age=86400") {
		t.Errorf("Cache-Control = %q", recorder.Header().Get("Cache-Control"))
	}
	if fetched.URL.String() != "https://media.tenor.com/x.gif" || fetched.Header.Get("User-Agent") == "" {
		t.Errorf("fetched %s with headers %v", fetched.URL, fetched.Header)
	}
}

func TestMediaProxyRejections(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		transport roundTripFunc
		status    int
	}{
		{"missing url", "", nil, http.StatusBadRequest},
		{"untrusted host", "?url=https://evil.example/x.gif", nil, http.StatusForbidden},
		{"upstream 404", "?url=https://i.giphy.com/x.gif", func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}, nil
		}, http.StatusNotFound},
		{"redirect to untrusted host", "?url=https://media.tenor.com/x.gif", func(request *http.Request) (*http.Response, error) {
			if request.URL.Host != "media.tenor.com" {
				t.Errorf("followed redirect to %s", request.URL)
			}
			return &http.Response{
				StatusCode: http.StatusFound,
				Header:     http.Header{"Location": {"https://evil.example/x.gif"}},
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		}, http.StatusBadGateway},
		{"upstream unreachable", "?url=https://i.giphy.com/x.gif", func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}, http.StatusBadGateway},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			transport := test.transport
			if transport == nil {
				transport = func(request *http.Request) (*http.Response, error) {
					t.Errorf("unexpected fetch of %s", request.URL)
					return nil, errors.New("unexpected")
				}
			}
			recorder := serve(t, mediaHandler(transport).Routes(), http.MethodGet, "/api/gif"+test.query, "")
			if recorder.Code != test.status {
				t.Errorf("status = %d, want %d", recorder.Code, test.status)
			}
		})
	}
}

func TestMediaClientFollowsTrustedRedirects(t *testing.T) {
	var fetched []string
	client := NewMediaClient(0)
	client.Transport = roundTripFunc(func(request *http.Request) (*http.Response, error) {
		fetched = append(fetched, request.URL.String())
		if request.URL.Host == "media.tenor.com" {
			return &http.Response{
				StatusCode: http.StatusMovedPermanently,
				Header:     http.Header{"Location": {"https://c.tenor.com/x.gif"}},
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("GIF89a"))}, nil
	})

	response, err := client.Get("https://media.tenor.com/x.gif")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	response.Body.Close()
	if len(fetched) != 2 || fetched[1] != "https://c.tenor.com/x.gif" {
		t.Errorf("fetched %v, want the trusted redirect followed", fetched)
	}
}
