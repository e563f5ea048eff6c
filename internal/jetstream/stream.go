package jetstream

import (
	"strings"
	"time"

	nats "github.com/nats-io/nats.go"
)

const (
	StreamName    = "RELAY"
	SubjectPrefix = "relay.req."

	doneSuffix = ".done"
)

// EnsureStream creates the work-queue stream that buffers SSE chunks between
// the proxy hot path and the background recorder.
func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"relay.>"},
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour,
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// ChunkSubject is where raw SSE chunks for one request are published.
func ChunkSubject(requestID string) string {
	return SubjectPrefix + requestID
}

// DoneSubject marks the end of one request's chunk stream.
func DoneSubject(requestID string) string {
	return SubjectPrefix + requestID + doneSuffix
}

// ParseSubject recovers the request ID from a chunk or done subject.
// It returns ok=false for subjects outside the relay.req namespace.
func ParseSubject(subject string) (requestID string, done bool, ok bool) {
	rest, found := strings.CutPrefix(subject, SubjectPrefix)
	if !found || rest == "" {
		return "", false, false
	}
	if id, isDone := strings.CutSuffix(rest, doneSuffix); isDone {
		return id, true, id != ""
	}
	if strings.Contains(rest, ".") {
		return "", false, false
	}
	return rest, false, true
}
