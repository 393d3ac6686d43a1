// Package auditlog keeps one append-only record per fetch attempt.
// Credential parameters are stripped and live secret values scrubbed
// before anything is serialized, so a log dump can be shared without
// leaking tokens.
package auditlog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"guaymallen-backend/lib/fetch"
)

const RedactionMarker = "[REDACTED]"

// parameter names treated as credentials when no explicit list is given
var defaultCredentialParams = []string{
	"access_token",
	"client_secret",
	"fb_exchange_token",
}

type Entry struct {
	Endpoint    string
	Params      string
	Status      int
	Payload     string
	PageIndex   int
	Kind        fetch.Kind
	RequestedAt time.Time
}

type Recorder struct {
	credentialParams map[string]bool
	secrets          []string
	entries          []Entry
	now              func() time.Time
}

// NewRecorder builds a recorder that strips the named credential
// parameters and scrubs every occurrence of the given secret values.
// A nil credentialParams falls back to the defaults.
func NewRecorder(credentialParams []string, secrets ...string) *Recorder {
	if credentialParams == nil {
		credentialParams = defaultCredentialParams
	}
	names := make(map[string]bool, len(credentialParams))
	for _, name := range credentialParams {
		names[name] = true
	}

	var nonEmpty []string
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}

	return &Recorder{
		credentialParams: names,
		secrets:          nonEmpty,
		now:              time.Now,
	}
}

// Record appends one entry for a fetch attempt. It never fails: a
// payload that cannot be re-serialized is stored as raw text behind an
// error marker.
func (r *Recorder) Record(endpoint string, params url.Values, res fetch.Response, pageIndex int) Entry {
	entry := Entry{
		Endpoint:    r.scrub(endpoint),
		Params:      r.scrub(redactParams(params, r.credentialParams)),
		Status:      res.Status,
		Payload:     r.scrub(serializePayload(res)),
		PageIndex:   pageIndex,
		RequestedAt: r.now(),
	}
	if failure := res.Failure(); failure != nil {
		entry.Kind = failure.Kind
	}

	r.entries = append(r.entries, entry)
	return entry
}

// RecordLoop appends a pagination-loop marker entry for a chain that
// exceeded its page cap.
func (r *Recorder) RecordLoop(endpoint string, pageIndex int) Entry {
	entry := Entry{
		Endpoint:    r.scrub(endpoint),
		Payload:     "pagination cap exceeded, continuation pointer kept repeating",
		PageIndex:   pageIndex,
		Kind:        fetch.KindPaginationLoop,
		RequestedAt: r.now(),
	}
	r.entries = append(r.entries, entry)
	return entry
}

func (r *Recorder) Entries() []Entry {
	return r.entries
}

func (r *Recorder) scrub(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, RedactionMarker)
		// secrets also show up percent-encoded inside continuation urls
		if encoded := url.QueryEscape(secret); encoded != secret {
			s = strings.ReplaceAll(s, encoded, RedactionMarker)
		}
	}
	return s
}

func redactParams(params url.Values, credentials map[string]bool) string {
	if len(params) == 0 {
		return ""
	}
	safe := url.Values{}
	for name, values := range params {
		if credentials[name] {
			continue
		}
		safe[name] = values
	}

	serialized, err := json.Marshal(flatten(safe))
	if err != nil {
		return fmt.Sprintf("error serializing params: %s", err)
	}
	return string(serialized)
}

func flatten(params url.Values) map[string]string {
	flat := make(map[string]string, len(params))
	for name, values := range params {
		if len(values) > 0 {
			flat[name] = values[0]
		}
	}
	return flat
}

func serializePayload(res fetch.Response) string {
	if res.Err != nil {
		return fmt.Sprintf("connection error: %s", res.Err.Message)
	}
	if res.JSON != nil {
		serialized, err := json.Marshal(res.JSON)
		if err != nil {
			return fmt.Sprintf("error serializing payload: %s | raw text: %s", err, res.Text)
		}
		return string(serialized)
	}
	return res.Text
}
