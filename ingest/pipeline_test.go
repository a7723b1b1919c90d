package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"noise-mapping/classify"
	"noise-mapping/models"
	"noise-mapping/wav"
)

type stubWindowScorer struct {
	windows [][]float64
	err     error
}

func (s stubWindowScorer) Scores(context.Context, []float64, int) ([][]float64, error) {
	return s.windows, s.err
}

// callOrder tracks the sequence of storage writes across both fakes.
type callOrder struct {
	calls []string
}

type fakeBlobStore struct {
	order *callOrder
	err   error
	data  map[string][]byte
}

func newFakeBlobStore(order *callOrder) *fakeBlobStore {
	return &fakeBlobStore{order: order, data: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte) error {
	f.order.calls = append(f.order.calls, "blob:"+key)
	if f.err != nil {
		return f.err
	}
	f.data[key] = data
	return nil
}

type fakeRecordStore struct {
	order   *callOrder
	putErr  error
	scanErr error
	records []models.ClassificationRecord
}

func newFakeRecordStore(order *callOrder) *fakeRecordStore {
	return &fakeRecordStore{order: order}
}

func (f *fakeRecordStore) PutRecord(_ context.Context, record models.ClassificationRecord) error {
	f.order.calls = append(f.order.calls, "record:"+record.ID)
	if f.putErr != nil {
		return f.putErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeRecordStore) ScanAll(context.Context) ([]models.ClassificationRecord, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := make([]models.ClassificationRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeRecordStore) Close() error { return nil }

func silentClip(seconds int) []byte {
	return wav.EncodeMono16(make([]float64, seconds*wav.TargetSampleRate), wav.TargetSampleRate)
}

func newTestPipeline(scorer classify.WindowScorer, blobs *fakeBlobStore, records *fakeRecordStore) *Pipeline {
	service := classify.NewService(classify.NewWindowedBackend(scorer, classify.DefaultLabels))
	return NewPipeline(service, NewBuilder(), blobs, records)
}

func TestIngestSilentClipReturnsUnknown(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	blobs := newFakeBlobStore(order)
	records := newFakeRecordStore(order)
	// a silent clip yields zero analysis windows from the model
	pipeline := newTestPipeline(stubWindowScorer{windows: nil}, blobs, records)

	resp, err := pipeline.Ingest(context.Background(), Request{
		Audio:    silentClip(2),
		DeviceID: "sensor-7",
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if resp.Classification.Category != classify.LabelUnknown {
		t.Fatalf("expected Unknown, got %s", resp.Classification.Category)
	}
	if resp.Classification.Confidence != 0.0 {
		t.Fatalf("expected confidence 0.0, got %f", resp.Classification.Confidence)
	}
	if resp.Metadata.ID == "" {
		t.Fatal("expected a freshly generated id")
	}
	if resp.Metadata.DeviceID != "sensor-7" {
		t.Fatalf("expected deviceId sensor-7, got %s", resp.Metadata.DeviceID)
	}
	if resp.Metadata.ZipCode != nil || resp.Metadata.Longitude != nil ||
		resp.Metadata.Latitude != nil || resp.Metadata.NoiseLevel != nil {
		t.Fatal("optional metadata fields must be absent when not supplied")
	}

	if len(records.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(records.records))
	}
	stored := records.records[0]
	if stored.Label != classify.LabelUnknown || stored.Confidence != 0.0 {
		t.Fatalf("stored record mismatch: (%s, %f)", stored.Label, stored.Confidence)
	}
	if _, ok := blobs.data[stored.Filename]; !ok {
		t.Fatalf("blob not stored under record key %s", stored.Filename)
	}
}

func TestIngestWritesBlobBeforeRecord(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	blobs := newFakeBlobStore(order)
	records := newFakeRecordStore(order)
	pipeline := newTestPipeline(stubWindowScorer{windows: [][]float64{{0.9}}}, blobs, records)

	if _, err := pipeline.Ingest(context.Background(), Request{Audio: silentClip(1)}); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if len(order.calls) != 2 {
		t.Fatalf("expected 2 storage calls, got %v", order.calls)
	}
	if !strings.HasPrefix(order.calls[0], "blob:") || !strings.HasPrefix(order.calls[1], "record:") {
		t.Fatalf("blob write must precede record write, got %v", order.calls)
	}
}

func TestIngestBlobFailureSkipsRecordWrite(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	blobs := newFakeBlobStore(order)
	blobs.err = errors.New("bucket unavailable")
	records := newFakeRecordStore(order)
	pipeline := newTestPipeline(stubWindowScorer{windows: nil}, blobs, records)

	_, err := pipeline.Ingest(context.Background(), Request{Audio: silentClip(1)})

	var blobErr *BlobWriteError
	if !errors.As(err, &blobErr) {
		t.Fatalf("expected BlobWriteError, got %v", err)
	}
	for _, call := range order.calls {
		if strings.HasPrefix(call, "record:") {
			t.Fatalf("record store must never be written after a blob failure, calls: %v", order.calls)
		}
	}
	if len(records.records) != 0 {
		t.Fatal("no record may reference a blob key that failed to persist")
	}
}

func TestIngestRecordFailureLeavesOrphanBlob(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	blobs := newFakeBlobStore(order)
	records := newFakeRecordStore(order)
	records.putErr = errors.New("table throttled")
	pipeline := newTestPipeline(stubWindowScorer{windows: nil}, blobs, records)

	_, err := pipeline.Ingest(context.Background(), Request{Audio: silentClip(1)})

	var recordErr *RecordWriteError
	if !errors.As(err, &recordErr) {
		t.Fatalf("expected RecordWriteError, got %v", err)
	}
	// the blob stays durable and unindexed; no compensating delete
	if len(blobs.data) != 1 {
		t.Fatalf("expected the orphaned blob to remain, got %d blobs", len(blobs.data))
	}
}

func TestIngestUndecodableAudioFailsEarly(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	blobs := newFakeBlobStore(order)
	records := newFakeRecordStore(order)
	pipeline := newTestPipeline(stubWindowScorer{windows: nil}, blobs, records)

	_, err := pipeline.Ingest(context.Background(), Request{Audio: nil})

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if len(order.calls) != 0 {
		t.Fatalf("no storage writes may happen after a decode failure, got %v", order.calls)
	}
}

func TestIngestAbsorbsClassificationFailure(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	blobs := newFakeBlobStore(order)
	records := newFakeRecordStore(order)
	pipeline := newTestPipeline(stubWindowScorer{err: errors.New("inference timeout")}, blobs, records)

	resp, err := pipeline.Ingest(context.Background(), Request{Audio: silentClip(1), DeviceID: "sensor-3"})
	if err != nil {
		t.Fatalf("classification failures must not fail the ingest, got %v", err)
	}

	if !strings.HasPrefix(resp.Classification.Category, "Error: ") {
		t.Fatalf("expected error-marked label, got %q", resp.Classification.Category)
	}
	if resp.Classification.Confidence != 0.0 {
		t.Fatalf("expected zero confidence, got %f", resp.Classification.Confidence)
	}
	if len(records.records) != 1 {
		t.Fatalf("degraded result must still be persisted, got %d records", len(records.records))
	}
}

func TestIngestIDsUniqueAcrossIdenticalCalls(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	blobs := newFakeBlobStore(order)
	records := newFakeRecordStore(order)
	pipeline := newTestPipeline(stubWindowScorer{windows: nil}, blobs, records)

	clip := silentClip(1)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		resp, err := pipeline.Ingest(context.Background(), Request{Audio: clip, DeviceID: "sensor-7"})
		if err != nil {
			t.Fatalf("Ingest returned error: %v", err)
		}
		if _, dup := seen[resp.Metadata.ID]; dup {
			t.Fatalf("duplicate id %s on iteration %d", resp.Metadata.ID, i)
		}
		seen[resp.Metadata.ID] = struct{}{}
	}
}
