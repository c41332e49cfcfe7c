package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// CallbackResult is the outcome of the single OAuth redirect the handler
// waits for.
type CallbackResult struct {
	Token string
	Err   error
}

// OAuthCallbackHandler serves the OAuth redirect. Only the first request on
// the callback path that carries a valid state completes the login; the
// result is delivered once on Done.
type OAuthCallbackHandler struct {
	path      string
	state     string
	exchanger TokenExchanger
	onToken   func(ctx context.Context, token string) error
	log       *zap.SugaredLogger

	done chan CallbackResult
	once sync.Once
}

func NewOAuthCallbackHandler(
	path, state string,
	exchanger TokenExchanger,
	onToken func(ctx context.Context, token string) error,
	log *zap.SugaredLogger) *OAuthCallbackHandler {
	return &OAuthCallbackHandler{
		path:      path,
		state:     state,
		exchanger: exchanger,
		onToken:   onToken,
		log:       log,
		done:      make(chan CallbackResult, 1),
	}
}

// Done delivers the login result once.
func (h *OAuthCallbackHandler) Done() <-chan CallbackResult {
	return h.done
}

func (h *OAuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != h.path {
		writeText(w, http.StatusNotFound, "Not Found")
		return
	}

	query := r.URL.Query()
	if subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(h.state)) != 1 {
		h.log.Warnw("Rejected oauth callback with unexpected state", "remoteAddr", r.RemoteAddr)
		writeText(w, http.StatusBadRequest, "Error: Invalid state.")
		return
	}

	code := query.Get("code")
	if code == "" {
		writeText(w, http.StatusBadRequest, "Error: No code received.")
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.finish(CallbackResult{Err: fmt.Errorf("error exchanging code for token: %w", err)})
		writeText(w, http.StatusBadGateway, "Error: Failed to obtain access token.")
		return
	}

	if h.onToken != nil {
		if err := h.onToken(r.Context(), token); err != nil {
			h.finish(CallbackResult{Err: err})
			writeText(w, http.StatusInternalServerError, "Error: Failed to store access token.")
			return
		}
	}

	h.finish(CallbackResult{Token: token})
	writeText(w, http.StatusOK, "You can close this window and return to the terminal.")
}

func (h *OAuthCallbackHandler) finish(result CallbackResult) {
	h.once.Do(func() {
		h.done <- result
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}
