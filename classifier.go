package catalyst

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultFatalPatterns are matched against the response status and body, or
// the error text for errors that did not come from the transport, when no
// structured signal decides the outcome.
var DefaultFatalPatterns = []string{
	"Invalid API key",
	"401",
	"403",
	"Unauthorized",
	"Forbidden",
	"api_key column not found",
	"PGRST204",
}

// DefaultFatalCodes are PostgREST error codes that mean the request can never
// succeed as sent: unknown column, and JWT problems.
var DefaultFatalCodes = []string{
	"PGRST204",
	"PGRST301",
	"PGRST302",
}

// Classifier decides whether a delivery failure is fatal or retryable.
type Classifier struct {
	patterns []string
	codes    map[string]struct{}
}

// NewClassifier builds a classifier. Empty arguments select the defaults.
func NewClassifier(patterns, codes []string) *Classifier {
	if len(patterns) == 0 {
		patterns = DefaultFatalPatterns
	}
	if len(codes) == 0 {
		codes = DefaultFatalCodes
	}

	c := &Classifier{
		patterns: append([]string(nil), patterns...),
		codes:    make(map[string]struct{}, len(codes)),
	}
	for _, code := range codes {
		c.codes[code] = struct{}{}
	}
	return c
}

// IsFatal reports whether err should halt dispatch and drop the queue.
func (c *Classifier) IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	message := err.Error()
	var terr *TransportError
	if errors.As(err, &terr) {
		// no response: the cause text carries the request URL, which must
		// not be mistaken for a status or an auth message
		if terr.Status == 0 {
			return false
		}
		if terr.Status == http.StatusUnauthorized || terr.Status == http.StatusForbidden {
			return true
		}
		if code := errorCode(terr.Body); code != "" {
			if _, ok := c.codes[code]; ok {
				return true
			}
		}
		message = strconv.Itoa(terr.Status) + " " + terr.Body
	}

	for _, pattern := range c.patterns {
		if pattern != "" && strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}

func errorCode(body string) string {
	if !gjson.Valid(body) {
		return ""
	}
	return gjson.Get(body, "code").String()
}
