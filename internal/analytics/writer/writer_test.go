package writer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wishlify/wishlify-backend/internal/analytics/types"
)

func TestNewWriterValidation(t *testing.T) {
	if _, err := New(nil, Config{OutboundClicksTable: "outbound_clicks"}); err == nil {
		t.Fatal("expected error when client missing")
	}
	if _, err := New(&fakeInserter{}, Config{OutboundClicksTable: " "}); err == nil {
		t.Fatal("expected error when table missing")
	}
}

func TestEncodeJSON(t *testing.T) {
	nj, err := EncodeJSON(map[string]any{"foo": "bar"})
	if err != nil {
		t.Fatalf("unexpected error encoding json: %v", err)
	}
	if !nj.Valid {
		t.Fatal("expected json to be marked valid")
	}

	nj, err = EncodeJSON(nil)
	if err != nil {
		t.Fatalf("unexpected error for nil json: %v", err)
	}
	if nj.Valid {
		t.Fatal("expected nil json to be invalid")
	}

	rawMessage := json.RawMessage(`{"foo":"baz"}`)
	nj, err = EncodeJSON(rawMessage)
	if err != nil {
		t.Fatalf("unexpected error encoding raw json: %v", err)
	}
	if nj.JSONVal != string(rawMessage) {
		t.Fatalf("expected raw json passed through, got %s", nj.JSONVal)
	}
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	if err := writer.InsertOutboundClick(context.Background(), types.OutboundClickRow{EventID: "evt-1"}); err != nil {
		t.Fatalf("unexpected error writing row: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected two insert attempts, got %d", len(fake.calls))
	}
	if fake.calls[1].table != "outbound_clicks" {
		t.Fatalf("unexpected table on retry %s", fake.calls[1].table)
	}
	if len(writer.clicksBuffer) != 0 {
		t.Fatal("expected buffer to be empty after success")
	}
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	err := writer.InsertOutboundClick(context.Background(), types.OutboundClickRow{EventID: "evt-1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(fake.calls))
	}
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	unavailable := status.Error(codes.Unavailable, "try later")
	fake.responses = []error{unavailable, unavailable, unavailable, nil}

	if err := writer.InsertOutboundClick(context.Background(), types.OutboundClickRow{EventID: "evt-1"}); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if len(fake.calls) != 3 {
		t.Fatalf("expected three attempts, got %d", len(fake.calls))
	}
}

func TestWriterUsesEventIDAsInsertID(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)

	if err := writer.InsertOutboundClick(context.Background(), types.OutboundClickRow{EventID: "evt-9", Hostname: "etsy.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saver, ok := fake.lastRows[0].(*cbigquery.StructSaver)
	if !ok {
		t.Fatalf("unexpected row type %T", fake.lastRows[0])
	}
	if saver.InsertID != "evt-9" {
		t.Fatalf("unexpected insert id %q", saver.InsertID)
	}
	row, ok := saver.Struct.(*types.OutboundClickRow)
	if !ok || row.Hostname != "etsy.com" {
		t.Fatalf("unexpected struct %#v", saver.Struct)
	}
}

func TestWriterBatchingAndFlush(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	writer.batchSize = 3

	for _, id := range []string{"1", "2"} {
		if err := writer.InsertOutboundClick(context.Background(), types.OutboundClickRow{EventID: id}); err != nil {
			t.Fatalf("unexpected insert error: %v", err)
		}
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no insert before batch full, got %d", len(fake.calls))
	}
	if err := writer.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if len(fake.calls) != 1 || fake.calls[0].rowCount != 2 {
		t.Fatalf("expected one insert of two rows, got %+v", fake.calls)
	}
	if err := writer.Flush(context.Background()); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("empty flush should not insert")
	}
}

func TestWriterConcurrentInserts(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = writer.InsertOutboundClick(context.Background(), types.OutboundClickRow{EventID: "evt"})
		}()
	}
	wg.Wait()

	if fake.totalRows() != 20 {
		t.Fatalf("expected 20 rows inserted, got %d", fake.totalRows())
	}
}

func TestWriterHonorsCanceledContext(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := writer.InsertOutboundClick(ctx, types.OutboundClickRow{EventID: "evt"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("no insert expected on canceled context")
	}
}

func TestIsRetryableBigQueryError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"http 503", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"http 429", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"http 400", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"grpc unavailable", status.Error(codes.Unavailable, "x"), true},
		{"grpc invalid", status.Error(codes.InvalidArgument, "x"), false},
		{"plain", errors.New("boom"), false},
		{"multi all retryable", &cbigquery.MultiError{&googleapi.Error{Code: 500}, &googleapi.Error{Code: 503}}, true},
		{"multi mixed", &cbigquery.MultiError{&googleapi.Error{Code: 500}, &googleapi.Error{Code: 400}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRetryableBigQueryError(tc.err); got != tc.want {
				t.Fatalf("isRetryableBigQueryError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

type insertCall struct {
	table    string
	rowCount int
}

type fakeInserter struct {
	mu        sync.Mutex
	responses []error
	calls     []insertCall
	lastRows  []any
	index     int
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, insertCall{table: table, rowCount: len(rows)})
	f.lastRows = rows
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	return err
}

func (f *fakeInserter) totalRows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, call := range f.calls {
		total += call.rowCount
	}
	return total
}

func newWriterWithFakeInserter(t *testing.T) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	fake := &fakeInserter{}
	writer, err := New(fake, Config{
		OutboundClicksTable: "outbound_clicks",
		RetryPolicy: RetryPolicy{
			InitialBackoff: time.Millisecond,
			MaximumBackoff: 2 * time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("construct writer: %v", err)
	}
	return writer, fake
}
