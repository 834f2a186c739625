// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotvm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/snapshotvm/vmerr"
)

const namespace = "snapshotvm"

type metrics struct {
	requests         *prometheus.CounterVec
	cpuInstructions  prometheus.Histogram
	inferredModules  prometheus.Counter
	restorePreambles prometheus.Counter
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests",
			Help:      "Number of handled requests by method and outcome",
		}, []string{"method", "outcome"}),
		cpuInstructions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cpu_instructions",
			Help:      "CPU instructions consumed by successful invocations",
			Buckets:   prometheus.ExponentialBuckets(10_000, 4, 10),
		}),
		inferredModules: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inferred_modules",
			Help:      "Number of contract code records recovered from the module store",
		}),
		restorePreambles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restore_preambles",
			Help:      "Number of requests answered with a restore preamble",
		}),
	}
	if registerer == nil {
		return m, nil
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.requests),
		registerer.Register(m.cpuInstructions),
		registerer.Register(m.inferredModules),
		registerer.Register(m.restorePreambles),
	)
	return m, errs.Err
}

// outcome labels a request result.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch vmerr.KindOf(err) {
	case vmerr.Validation:
		return "validation"
	case vmerr.ModuleNotFound:
		return "module_not_found"
	case vmerr.StoreUnavailable:
		return "store_unavailable"
	case vmerr.SnapshotInvalid:
		return "snapshot_invalid"
	case vmerr.BudgetExceeded:
		return "budget_exceeded"
	case vmerr.Contract:
		return "contract"
	case vmerr.Host:
		return "host"
	default:
		return "internal"
	}
}
