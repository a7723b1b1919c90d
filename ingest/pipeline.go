package ingest

import (
	"context"
	"log/slog"

	"noise-mapping/blob"
	"noise-mapping/classify"
	"noise-mapping/db"
	"noise-mapping/models"
	"noise-mapping/utils"
	"noise-mapping/wav"

	"github.com/mdobak/go-xerrors"
)

// Request is one ingest unit of work: the raw uploaded bytes plus the sensor
// metadata from the form fields.
type Request struct {
	Audio    []byte
	DeviceID string
	Options  Optional
}

// Pipeline orchestrates decode -> classify -> persist for each uploaded clip.
// Every call either returns a full response or a typed error; the caller
// never sees a partial result, even though a failed record write can leave an
// orphaned blob behind (acceptable cleanup debt, not rolled back).
type Pipeline struct {
	classifier *classify.Service
	builder    *Builder
	blobs      blob.Store
	records    db.RecordStore
	logger     *slog.Logger
}

func NewPipeline(classifier *classify.Service, builder *Builder, blobs blob.Store, records db.RecordStore) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		builder:    builder,
		blobs:      blobs,
		records:    records,
		logger:     utils.GetLogger(),
	}
}

// Ingest runs one clip through the pipeline. Decode failures and storage
// failures abort with a typed error; classification failures are absorbed
// into the stored label so the ingest still succeeds end to end.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*models.UploadResponse, error) {
	audio, err := wav.Decode(req.Audio)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to decode uploaded audio",
			slog.String("deviceID", req.DeviceID),
			slog.Int("byteCount", len(req.Audio)),
			slog.Any("error", xerrors.New(err)),
		)
		return nil, &DecodeError{Err: err}
	}

	result := p.classifier.Classify(ctx, audio.Samples, audio.SampleRate)

	record := p.builder.Build(req.DeviceID, req.Options, result)

	// Blob first: a stored record must never point at a key that failed to
	// persist. The reverse orphan (blob without record) is tolerated.
	if err := p.blobs.Put(ctx, record.Filename, req.Audio); err != nil {
		p.logger.ErrorContext(ctx, "failed to store audio blob",
			slog.String("key", record.Filename),
			slog.Any("error", xerrors.New(err)),
		)
		return nil, &BlobWriteError{Key: record.Filename, Err: err}
	}

	if err := p.records.PutRecord(ctx, record); err != nil {
		p.logger.ErrorContext(ctx, "failed to store classification record, blob is orphaned",
			slog.String("id", record.ID),
			slog.String("key", record.Filename),
			slog.Any("error", xerrors.New(err)),
		)
		return nil, &RecordWriteError{ID: record.ID, Err: err}
	}

	p.logger.InfoContext(ctx, "ingested clip",
		slog.String("id", record.ID),
		slog.String("deviceID", record.DeviceID),
		slog.String("key", record.Filename),
		slog.String("label", record.Label),
		slog.Float64("confidence", record.Confidence),
		slog.Float64("duration", audio.Duration),
	)

	return &models.UploadResponse{
		Classification: models.ClassificationPayload{
			Category:   result.Label,
			Confidence: result.Confidence,
		},
		Metadata: record.Metadata(),
	}, nil
}

// Records returns every stored classification record.
func (p *Pipeline) Records(ctx context.Context) ([]models.ClassificationRecord, error) {
	records, err := p.records.ScanAll(ctx)
	if err != nil {
		return nil, &ScanError{Err: err}
	}
	return records, nil
}
