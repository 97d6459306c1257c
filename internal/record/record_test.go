package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type sliceWriter struct {
	records []Record
	err     error
}

func (w *sliceWriter) Write(_ context.Context, r Record) error {
	w.records = append(w.records, r)
	return w.err
}

func TestMultiWriter(t *testing.T) {
	boom := errors.New("boom")
	failing := &sliceWriter{err: boom}
	ok := &sliceWriter{}

	w := MultiWriter{failing, ok}

	r := Response{FlightID: uuid.New(), Command: "takeoff", Body: "ok", Timestamp: time.Now()}
	if err := w.Write(context.Background(), r); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want %v", err, boom)
	}

	if len(failing.records) != 1 || len(ok.records) != 1 {
		t.Fatalf("Records written = %d and %d, want 1 and 1", len(failing.records), len(ok.records))
	}
	if got := ok.records[0]; got.Type() != TypeResponse || got.Flight() != r.FlightID {
		t.Errorf("Record = %+v", got)
	}
}
