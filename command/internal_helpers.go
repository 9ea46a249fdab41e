package command

import (
	"time"

	"github.com/goliatone/go-user-tracker/pkg/types"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeMetrics(metrics types.Metrics) types.Metrics {
	if metrics != nil {
		return metrics
	}
	return types.NopMetrics{}
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}
