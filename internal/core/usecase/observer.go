package usecase

import "time"

// PipelineObserver receives pipeline outcomes, typically for metrics.
// A nil observer is allowed everywhere it is accepted.
type PipelineObserver interface {
	ObserveIngest(chunks int, elapsed time.Duration, err error)
	ObserveRetrievalStrategy(strategy string, hits int, err error)
	ObserveExtraction(fieldType string, success, hasValue bool, confidence float64, elapsed time.Duration)
	ObserveBulk(total, extracted int, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveIngest(int, time.Duration, error) {}
func (noopObserver) ObserveRetrievalStrategy(string, int, error) {}
func (noopObserver) ObserveExtraction(string, bool, bool, float64, time.Duration) {}
func (noopObserver) ObserveBulk(int, int, time.Duration) {}

func observerOrNoop(observer PipelineObserver) PipelineObserver {
	if observer == nil {
		return noopObserver{}
	}
	return observer
}
