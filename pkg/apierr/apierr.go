// Package apierr classifies failures reported by the Admin API.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

type Kind string

const (
	Authentication Kind = "authentication"
	RateLimit      Kind = "rate_limit"
	GraphQL        Kind = "graphql"
	Unknown        Kind = "unknown"
)

var (
	accessDeniedPattern = regexp.MustCompile(`(?i)access denied|unauthorized|invalid api key|access token`)
	rateLimitPattern    = regexp.MustCompile(`(?i)throttled|rate limit`)
)

// Info is a classified failure. It is itself an error so it can be returned
// up to the command layer.
type Info struct {
	Kind       Kind
	Message    string
	Suggestion string
	// Detail is the raw text the classification was made from.
	Detail string
}

func (i *Info) Error() string {
	return i.Message
}

// Fatal reports whether the whole command must stop.
func (i *Info) Fatal() bool {
	return i.Kind == Authentication || i.Kind == RateLimit
}

// UserError is one field-level validation error returned alongside an
// otherwise successful mutation response.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserErrors is returned when a mutation reports userErrors.
type UserErrors struct {
	Operation string
	Errors    []UserError
}

func (e *UserErrors) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		if len(ue.Field) > 0 {
			parts = append(parts, strings.Join(ue.Field, ".")+": "+ue.Message)
		} else {
			parts = append(parts, ue.Message)
		}
	}
	return e.Operation + ": " + strings.Join(parts, "; ")
}

// PayloadError is implemented by transport errors that carry the raw
// "errors" value of a GraphQL response.
type PayloadError interface {
	error
	Payload() gjson.Result
}

// StatusError is implemented by transport errors that carry an HTTP status.
type StatusError interface {
	error
	Status() int
}

// Classify inspects a raw errors payload, which may be an array, an object or
// a string.
func Classify(payload gjson.Result, shop string) *Info {
	if !payload.Exists() || payload.Type == gjson.Null {
		return &Info{Kind: Unknown, Message: "Unknown error occurred"}
	}
	return classifyMessage(Message(payload), shop)
}

// Message flattens an errors payload into one line of text.
func Message(payload gjson.Result) string {
	switch {
	case payload.IsArray():
		var parts []string
		for _, item := range payload.Array() {
			if msg := item.Get("message"); msg.Exists() && msg.String() != "" {
				parts = append(parts, msg.String())
				continue
			}
			parts = append(parts, itemText(item))
		}
		return strings.Join(parts, ", ")
	case payload.IsObject():
		if msg := payload.Get("message"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
		return payload.Raw
	default:
		return payload.String()
	}
}

func itemText(item gjson.Result) string {
	if item.Type == gjson.String {
		return item.Str
	}
	return item.Raw
}

func classifyMessage(msg, shop string) *Info {
	if accessDeniedPattern.MatchString(msg) {
		info := &Info{
			Kind:    Authentication,
			Message: "Authentication Error: The access token for this shop is invalid or expired.",
			Detail:  msg,
		}
		if shop != "" {
			info.Suggestion = fmt.Sprintf("Please update the access token of shop %q in your config file.", shop)
		}
		return info
	}

	if rateLimitPattern.MatchString(msg) {
		return &Info{
			Kind:       RateLimit,
			Message:    "Rate Limit: API rate limit exceeded.",
			Suggestion: "Please wait a moment and try again.",
			Detail:     msg,
		}
	}

	return &Info{
		Kind:    GraphQL,
		Message: "GraphQL Error: " + msg,
		Detail:  msg,
	}
}

// ClassifyError classifies any error returned by the transport. Errors that
// carry neither a payload nor a status are matched on their text.
func ClassifyError(err error, shop string) *Info {
	if err == nil {
		return nil
	}

	var info *Info
	if errors.As(err, &info) {
		return info
	}

	// User errors are validation failures, whatever their text says.
	var ue *UserErrors
	if errors.As(err, &ue) {
		return &Info{Kind: GraphQL, Message: ue.Error(), Detail: ue.Error()}
	}

	var pe PayloadError
	if errors.As(err, &pe) {
		return Classify(pe.Payload(), shop)
	}

	var se StatusError
	if errors.As(err, &se) {
		switch se.Status() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return classifyMessage("unauthorized: "+se.Error(), shop)
		case http.StatusTooManyRequests:
			return classifyMessage("throttled: "+se.Error(), shop)
		}
	}

	msg := err.Error()
	classified := classifyMessage(msg, shop)
	if classified.Kind == GraphQL {
		return &Info{Kind: Unknown, Message: msg, Detail: msg}
	}
	return classified
}
