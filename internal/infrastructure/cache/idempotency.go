// Package cache provides the idempotency stores behind the Idempotency-Key
// request header.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// IdempotencyState is the state of a key after Begin
type IdempotencyState int

const (
	// IdempotencyNew means the caller now owns the key and must Complete or Release it
	IdempotencyNew IdempotencyState = iota
	// IdempotencyInFlight means another request holds the key
	IdempotencyInFlight
	// IdempotencyDone means a response was recorded and should be replayed
	IdempotencyDone
)

// ErrEmptyKey is returned for an empty idempotency key
var ErrEmptyKey = errors.New("idempotency key is empty")

// StoredResponse is a recorded HTTP response
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore records the first response for a key so retries of the
// same request can be answered without repeating the side effect
type IdempotencyStore interface {
	// Begin claims key for ttl. For IdempotencyDone the recorded response is returned.
	Begin(ctx context.Context, key string, ttl time.Duration) (IdempotencyState, *StoredResponse, error)
	// Complete records resp for a key claimed by Begin
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	// Release drops a claim without recording a response, e.g. after a failure
	Release(ctx context.Context, key string) error
	Close() error
}

const pendingMarker = "pending"

func encodeResponse(resp StoredResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeResponse(raw string) (*StoredResponse, error) {
	var resp StoredResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
