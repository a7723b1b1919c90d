package ingest

import (
	"fmt"
	"time"

	"noise-mapping/classify"
	"noise-mapping/models"

	"github.com/google/uuid"
)

// DefaultDeviceID is the sentinel used when the caller does not identify the
// reporting device.
const DefaultDeviceID = "default_device"

// capturedAtLayout is the fixed-width capture-time format embedded in blob
// keys. Microsecond precision keeps keys from two uploads of the same device
// within one second from colliding.
const capturedAtLayout = "20060102T150405.000000Z"

// Optional carries the caller-supplied fields that default to absent. Absent
// stays absent all the way into storage, never zero or empty string.
type Optional struct {
	Latitude   *float64
	Longitude  *float64
	ZipCode    *string
	NoiseLevel *float64
}

// Builder derives the identity of each ingested clip: a fresh record id, one
// capture-time sample and the blob key. The clock and id source are injected
// so tests can pin them.
type Builder struct {
	now   func() time.Time
	newID func() string
}

func NewBuilder() *Builder {
	return &Builder{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Build assembles the record for one ingested clip. The capture time is
// sampled exactly once so the epoch field, the formatted field and the
// key-embedded time can never drift apart.
func (b *Builder) Build(deviceID string, opts Optional, result classify.Result) models.ClassificationRecord {
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}

	capturedAt := b.now().UTC()

	return models.ClassificationRecord{
		ID:         b.newID(),
		DeviceID:   deviceID,
		Timestamp:  capturedAt.Unix(),
		CapturedAt: capturedAt.Format(capturedAtLayout),
		Filename:   BlobKey(deviceID, capturedAt),
		Latitude:   opts.Latitude,
		Longitude:  opts.Longitude,
		ZipCode:    opts.ZipCode,
		NoiseLevel: opts.NoiseLevel,
		Label:      result.Label,
		Confidence: result.Confidence,
	}
}

// BlobKey derives the blob storage key for a clip. Pure function of its
// inputs: same device and capture instant always produce the same key.
func BlobKey(deviceID string, capturedAt time.Time) string {
	return fmt.Sprintf("%s_%s.wav", deviceID, capturedAt.UTC().Format(capturedAtLayout))
}
