package port

import (
	"context"

	"github.com/joakimgrr/framecatcher/internal/domain/entity"
)

// ReportWriter persists a comparison result as JSON to its fixed
// report path, overwriting any previous report.
type ReportWriter interface {
	Write(ctx context.Context, result *entity.ComparisonResult) (string, error)
}
