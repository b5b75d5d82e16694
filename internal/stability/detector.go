package stability

import (
	"context"
	"time"

	"scanflow/internal/fileutil"
	"scanflow/internal/retry"
)

// Detector decides when a directory's file listing has stopped changing.
// Batch processing must start only once the scanner has finished writing,
// so a directory that never goes quiet blocks until the context is
// canceled: partial documents are never processed.
type Detector struct {
	QuietPeriod  time.Duration
	PollInterval time.Duration
	SettleDelay  time.Duration
}

// WaitForCount blocks until the count of files in dir matching ext has
// remained unchanged for the quiet period, then returns that count.
func (d Detector) WaitForCount(ctx context.Context, dir, ext string) (int, error) {
	lastCount := -1
	stableSince := time.Now()

	for {
		count, err := fileutil.CountFilesWithExt(dir, ext)
		if err != nil {
			return 0, err
		}
		now := time.Now()
		if count != lastCount {
			lastCount = count
			stableSince = now
		} else if now.Sub(stableSince) >= d.QuietPeriod {
			return count, nil
		}
		if err := retry.Sleep(ctx, d.PollInterval); err != nil {
			return 0, err
		}
	}
}

// WaitForSettle pauses for the short fixed delay applied to single loose
// documents before they are picked up.
func (d Detector) WaitForSettle(ctx context.Context) error {
	return retry.Sleep(ctx, d.SettleDelay)
}
