package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SSEEventRow is one stored SSE frame.
type SSEEventRow struct {
	Index    int    // ordinal of the data line within the stream
	Type     string // decoded event type, or "done"/"malformed"
	DataJSON string // raw payload as received
	RawBytes int
}

// InsertSSEEventsJob batch-inserts a stream's frames using the COPY protocol.
func InsertSSEEventsJob(requestID uuid.UUID, ts time.Time, events []SSEEventRow) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		rows := make([][]interface{}, len(events))
		for i, ev := range events {
			rows[i] = []interface{}{
				ts,
				requestID,
				ev.Index,
				ev.Type,
				ev.DataJSON,
				ev.RawBytes,
			}
		}

		_, err := pool.CopyFrom(ctx,
			pgx.Identifier{"sse_events"},
			[]string{"ts", "request_id", "event_index", "event_type", "data_json", "raw_bytes"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
}
