package domain

import "time"

// UsageLog records per-job accounting written after a successful
// generation run.
type UsageLog struct {
	UserID           string
	JobID            string
	VariantsProduced int64
	PixelsProcessed  int64
	OutputBytes      int64
	ComputeTimeMS    int64
	CreatedAt        time.Time
}
