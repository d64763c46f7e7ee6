// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sleepyleo/intern/reaction"
)

// maxMediaSize bounds one proxied media file.
const maxMediaSize = 32 << 20

// maxMediaRedirects bounds the redirect chain of one media fetch.
const maxMediaRedirects = 10

// NewMediaClient returns a client for HandleMedia that follows a
// redirect only to another trusted media host.
func NewMediaClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, CheckRedirect: checkMediaRedirect}
}

func checkMediaRedirect(request *http.Request, via []*http.Request) error {
	if len(via) >= maxMediaRedirects {
		return fmt.Errorf("stopped after %d redirects", maxMediaRedirects)
	}
	if !reaction.AllowedMediaHost(request.URL.String()) {
		return errors.New("redirect to untrusted host " + request.URL.Host)
	}
	return nil
}

// HandleMedia proxies a reaction GIF from a trusted media host, so the
// console can show it without loading third-party origins.
func (h *Handler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		h.sendError(w, http.StatusBadRequest, "Missing url parameter")
		return
	}
	if !reaction.AllowedMediaHost(target) {
		h.sendError(w, http.StatusForbidden, "Host not allowed")
		return
	}

	request, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid URL")
		return
	}
	request.Header.Set("User-Agent", "Mozilla/5.0")

	response, err := h.mediaClient.Do(request)
	if err != nil {
		h.logger.Warn("fetching reaction media", "url", target, "error", err)
		h.sendError(w, http.StatusBadGateway, "Failed to proxy GIF")
		return
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		h.sendError(w, response.StatusCode, "Failed to fetch GIF")
		return
	}

	contentType := response.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/gif"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, s-maxage=604800, stale-while-revalidate=86400")
	if _, err := io.Copy(w, io.LimitReader(response.Body, maxMediaSize)); err != nil {
		h.logger.Debug("copying reaction media", "url", target, "error", err)
	}
}
