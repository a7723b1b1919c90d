package classify

import (
	"context"
	"log/slog"

	"noise-mapping/utils"

	"github.com/mdobak/go-xerrors"
)

// Service wraps the configured backend and absorbs inference failures into
// result values. Classification is never fatal to an ingest: a backend error
// becomes a labelled error result with zero confidence.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend, logger: utils.GetLogger()}
}

// BackendName exposes the active backend variant for startup logging.
func (s *Service) BackendName() string {
	return s.backend.Name()
}

// Classify runs the clip through the backend. The returned result is always
// usable; failures are downgraded to data rather than propagated.
func (s *Service) Classify(ctx context.Context, samples []float64, sampleRate int) Result {
	result, err := s.backend.Classify(ctx, samples, sampleRate)
	if err != nil {
		s.logger.ErrorContext(ctx, "classification failed, absorbing into result",
			slog.String("backend", s.backend.Name()),
			slog.Any("error", xerrors.New(err)),
		)
		return ErrorResult(err)
	}
	return result
}
