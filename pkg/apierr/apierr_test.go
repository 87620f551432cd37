package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

type payloadErr struct{ raw string }

func (e payloadErr) Error() string          { return "graphql failed" }
func (e payloadErr) Payload() gjson.Result { return gjson.Parse(e.raw) }

type statusErr struct{ code int }

func (e statusErr) Error() string { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) Status() int   { return e.code }

func TestClassifyPayloadShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    Kind
		message string
	}{
		{"array of objects", `[{"message":"Access denied for products field."}]`, Authentication, "Access denied for products field."},
		{"array of strings", `["Throttled"]`, RateLimit, "Throttled"},
		{"mixed array", `[{"message":"bad field"},"second"]`, GraphQL, "bad field, second"},
		{"object with message", `{"message":"[API] Invalid API key or access token (unrecognized login or wrong password)"}`, Authentication, "[API] Invalid API key or access token (unrecognized login or wrong password)"},
		{"object without message", `{"code":"X"}`, GraphQL, `{"code":"X"}`},
		{"string", `"Exceeded 2 calls per second for api client. Reduce request rates to resume uninterrupted service. rate limit"`, RateLimit, "Exceeded 2 calls per second for api client. Reduce request rates to resume uninterrupted service. rate limit"},
		{"case insensitive", `"UNAUTHORIZED"`, Authentication, "UNAUTHORIZED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := gjson.Parse(tc.payload)
			assert.Equal(t, tc.message, Message(payload))
			info := Classify(payload, "acme")
			assert.Equal(t, tc.kind, info.Kind)
			assert.Equal(t, tc.message, info.Detail)
		})
	}
}

func TestClassifyMissingPayload(t *testing.T) {
	info := Classify(gjson.Get(`{"data":{}}`, "errors"), "acme")
	assert.Equal(t, Unknown, info.Kind)
	assert.False(t, info.Fatal())
}

func TestAuthenticationSuggestionNamesShop(t *testing.T) {
	info := Classify(gjson.Parse(`[{"message":"access denied"}]`), "acme")
	assert.Equal(t, Authentication, info.Kind)
	assert.Contains(t, info.Suggestion, `"acme"`)
	assert.True(t, info.Fatal())

	noShop := Classify(gjson.Parse(`[{"message":"access denied"}]`), "")
	assert.Empty(t, noShop.Suggestion)
}

func TestRateLimitSuggestion(t *testing.T) {
	info := Classify(gjson.Parse(`[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]`), "acme")
	assert.Equal(t, RateLimit, info.Kind)
	assert.Equal(t, "Please wait a moment and try again.", info.Suggestion)
	assert.True(t, info.Fatal())
}

func TestClassifyError(t *testing.T) {
	assert.Nil(t, ClassifyError(nil, "acme"))

	wrapped := fmt.Errorf("fetching page: %w", payloadErr{raw: `[{"message":"Access denied"}]`})
	assert.Equal(t, Authentication, ClassifyError(wrapped, "acme").Kind)

	assert.Equal(t, Authentication, ClassifyError(statusErr{code: 401}, "acme").Kind)
	assert.Equal(t, Authentication, ClassifyError(statusErr{code: 403}, "acme").Kind)
	assert.Equal(t, RateLimit, ClassifyError(statusErr{code: 429}, "acme").Kind)
	assert.Equal(t, Unknown, ClassifyError(statusErr{code: 500}, "acme").Kind)

	plain := ClassifyError(errors.New("connection reset by peer"), "acme")
	assert.Equal(t, Unknown, plain.Kind)
	assert.Equal(t, "connection reset by peer", plain.Message)

	already := &Info{Kind: RateLimit, Message: "x"}
	assert.Same(t, already, ClassifyError(fmt.Errorf("wrap: %w", already), "acme"))
}

func TestUserErrorsNeverEscalate(t *testing.T) {
	ue := &UserErrors{
		Operation: "metafieldDefinitionCreate",
		Errors: []UserError{
			{Field: []string{"definition", "type"}, Message: "Type is invalid"},
			{Message: "access token scope mismatch"},
		},
	}
	assert.Equal(t, "metafieldDefinitionCreate: definition.type: Type is invalid; access token scope mismatch", ue.Error())

	info := ClassifyError(fmt.Errorf("creating definition: %w", ue), "acme")
	assert.Equal(t, GraphQL, info.Kind)
	assert.False(t, info.Fatal())
}
