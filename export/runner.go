package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"lst-tools/imagery"
)

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// Backoff controls the exponential backoff between write attempts.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{MaxRetries: 3, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second}
}

type writeFunc func(img *imagery.Image, path string, req Request) error

// Runner writes export outputs into the Drive directory. Writes are retried
// with exponential backoff behind a circuit breaker.
type Runner struct {
	DriveDir string
	backoff  Backoff
	circuit  *gobreaker.CircuitBreaker
	write    writeFunc
}

func NewRunner(driveDir string, backoff Backoff) *Runner {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "export",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		// Opens once a whole Write has exhausted its retries.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > uint32(max(backoff.MaxRetries, 0))
		},
	})
	return &Runner{DriveDir: driveDir, backoff: backoff, circuit: cb, write: writeImage}
}

// OutputPath is where the output of req lands: <drive>/<description><ext>.
func (r *Runner) OutputPath(req Request) string {
	return filepath.Join(r.DriveDir, req.Description+req.Format.Ext())
}

// Write writes img for req and returns the output path.
func (r *Runner) Write(ctx context.Context, img *imagery.Image, req Request) (string, error) {
	if r.backoff.MaxRetries < 0 || r.backoff.InitialInterval <= 0 {
		return "", errInvalidConfig
	}
	if err := os.MkdirAll(r.DriveDir, 0o755); err != nil {
		return "", err
	}
	path := r.OutputPath(req)

	var attempt int
	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		_, err := r.circuit.Execute(func() (interface{}, error) {
			return nil, r.write(img, path, req)
		})
		if err == nil {
			logrus.WithFields(logrus.Fields{"path": path, "attempts": attempt + 1}).Info("Export written")
			return path, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if attempt >= r.backoff.MaxRetries {
			return "", err
		}
		logrus.Warnf("Export write to %s failed (attempt %d): %v", path, attempt+1, err)

		delay := r.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > r.backoff.MaxInterval && r.backoff.MaxInterval > 0 {
			delay = r.backoff.MaxInterval
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

func writeImage(img *imagery.Image, path string, req Request) error {
	switch req.Format {
	case FormatGeoTIFF:
		return WriteGeoTIFF(img, path)
	case FormatParquet:
		return WriteParquet(img, path, req.cellLevel())
	case FormatCSV:
		return WriteCSV(img, path, req.cellLevel())
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidRequest, req.Format)
	}
}
