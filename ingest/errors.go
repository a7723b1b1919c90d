package ingest

// The pipeline distinguishes four failure classes. Decode and storage errors
// abort the request and surface to the caller; classification errors never
// appear here because the classify service absorbs them into result values.

// DecodeError means the uploaded bytes were empty or not a decodable audio
// stream.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "failed to decode audio: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// BlobWriteError means the raw audio blob could not be persisted. The
// structured record is never written after this.
type BlobWriteError struct {
	Key string
	Err error
}

func (e *BlobWriteError) Error() string {
	return "failed to store audio blob " + e.Key + ": " + e.Err.Error()
}
func (e *BlobWriteError) Unwrap() error { return e.Err }

// RecordWriteError means the structured record write failed after the blob
// was durably stored. The blob is left in place as an unindexed orphan; there
// is no compensating delete.
type RecordWriteError struct {
	ID  string
	Err error
}

func (e *RecordWriteError) Error() string {
	return "failed to store classification record " + e.ID + ": " + e.Err.Error()
}
func (e *RecordWriteError) Unwrap() error { return e.Err }

// ScanError means the export scan of structured storage failed.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string { return "failed to scan classification records: " + e.Err.Error() }
func (e *ScanError) Unwrap() error { return e.Err }
