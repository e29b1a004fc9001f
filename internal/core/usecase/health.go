package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

const defaultProbeTimeout = 3 * time.Second

type HealthUseCase struct {
	probes  []ports.HealthProbe
	timeout time.Duration
}

func NewHealthUseCase(probes []ports.HealthProbe, timeout time.Duration) *HealthUseCase {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &HealthUseCase{probes: probes, timeout: timeout}
}

// Check pings every probe concurrently. A failing critical probe makes the
// report unhealthy; a failing optional one makes it degraded.
func (uc *HealthUseCase) Check(ctx context.Context) domain.HealthReport {
	type outcome struct {
		name     string
		critical bool
		err      error
	}

	outcomes := make([]outcome, len(uc.probes))
	var wg sync.WaitGroup
	for i, probe := range uc.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, uc.timeout)
			defer cancel()
			outcomes[i] = outcome{name: probe.Name(), critical: probe.Critical(), err: probe.Ping(probeCtx)}
		}()
	}
	wg.Wait()

	report := domain.HealthReport{
		Status:   domain.HealthHealthy,
		Services: make(map[string]string, len(outcomes)),
	}
	for _, o := range outcomes {
		if o.err == nil {
			report.Services[o.name] = "ok"
			continue
		}
		report.Services[o.name] = "error: " + o.err.Error()
		if o.critical {
			report.Status = domain.HealthUnhealthy
		} else if report.Status == domain.HealthHealthy {
			report.Status = domain.HealthDegraded
		}
	}
	return report
}
