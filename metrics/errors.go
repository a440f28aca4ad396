package metrics

import (
	"fmt"

	e "github.com/tutumagi/mcentity/errors"
)

// ErrMetricNotKnown the reporter has no collector for the metric
var ErrMetricNotKnown = func(metric string) *e.Error {
	return e.NewError(fmt.Errorf("the metric %s is not known", metric), "Metrics_001")
}
