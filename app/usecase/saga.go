package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

// compensationTimeout bounds every undo. Undos run detached from the request
// so a disconnecting client cannot interrupt them.
const compensationTimeout = 10 * time.Second

type sagaStep struct {
	name domain.ProvisionStep
	do   func(ctx context.Context) error
	// undo is nil for steps that change nothing.
	undo func(ctx context.Context) error
}

// saga runs steps in order and, on the first failure, undoes the completed
// steps in reverse.
type saga struct {
	flow   domain.ProvisionFlow
	steps  []sagaStep
	logger *slog.Logger
}

type sagaResult struct {
	failedStep      domain.ProvisionStep
	cause           error
	compensationErr error
}

func newSaga(flow domain.ProvisionFlow, logger *slog.Logger) *saga {
	return &saga{flow: flow, logger: logger.With("flow", string(flow))}
}

func (s *saga) step(name domain.ProvisionStep, do, undo func(ctx context.Context) error) *saga {
	s.steps = append(s.steps, sagaStep{name: name, do: do, undo: undo})
	return s
}

func (s *saga) run(ctx context.Context) sagaResult {
	for i, st := range s.steps {
		if err := st.do(ctx); err != nil {
			s.logger.Warn("provisioning step failed", "step", st.name, "error", err)
			return sagaResult{
				failedStep:      st.name,
				cause:           err,
				compensationErr: s.compensate(ctx, s.steps[:i]),
			}
		}
	}
	return sagaResult{}
}

func (s *saga) compensate(ctx context.Context, done []sagaStep) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.undo == nil {
			continue
		}

		undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		err := st.undo(undoCtx)
		cancel()

		if err != nil {
			s.logger.Error("compensation failed", "step", st.name, "error", err)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("compensated provisioning step", "step", st.name)
	}
	return errors.Join(errs...)
}
