package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sems-converter/internal/entity"
)

// JobSpec binds a job descriptor to the converter that produces its output.
type JobSpec struct {
	Descriptor *entity.JobDescriptor
	Convert    ConvertFunc
}

// Registry holds the fixed set of job kinds for the lifetime of the process.
type Registry struct {
	jobs  []*Job
	byKey map[string]*Job
	runs  RunRecorder
	log   *zap.Logger
}

func NewRegistry(store ContentStore, runs RunRecorder, log *zap.Logger, specs ...JobSpec) (*Registry, error) {
	if store == nil {
		return nil, errors.New("content store is required")
	}
	if runs == nil {
		runs = NopRecorder()
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "registry"))

	r := &Registry{byKey: make(map[string]*Job, len(specs)), runs: runs, log: log}
	for _, s := range specs {
		if s.Descriptor == nil || s.Convert == nil {
			return nil, errors.New("job spec needs a descriptor and a converter")
		}
		if _, dup := r.byKey[s.Descriptor.Kind]; dup {
			return nil, fmt.Errorf("duplicate job kind %q", s.Descriptor.Kind)
		}
		j := newJob(s.Descriptor, s.Convert, store, runs, log)
		r.jobs = append(r.jobs, j)
		r.byKey[j.Kind()] = j
	}
	return r, nil
}

// Dispatch returns the state machine of a job kind.
func (r *Registry) Dispatch(kind string) (*Job, error) {
	j, ok := r.byKey[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKindNotFound, kind)
	}
	return j, nil
}

func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Kind())
	}
	return out
}

func (r *Registry) ListSlots(kind string) (SlotList, error) {
	j, err := r.Dispatch(kind)
	if err != nil {
		return SlotList{}, err
	}
	return j.Slots(), nil
}

// Reset clears every slot of every job kind. All jobs are locked for the
// whole pass, so no caller observes a partially cleared registry.
func (r *Registry) Reset(ctx context.Context) error {
	for _, j := range r.jobs {
		j.mu.Lock()
	}
	defer func() {
		for i := len(r.jobs) - 1; i >= 0; i-- {
			r.jobs[i].mu.Unlock()
		}
	}()

	var errs []error
	for _, j := range r.jobs {
		if err := j.reset(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		r.log.Error("reset", zap.Error(err))
		return err
	}
	r.log.Info("reset done", zap.Int("kinds", len(r.jobs)))
	return nil
}

// Runs lists the most recent conversion runs of a job kind.
func (r *Registry) Runs(ctx context.Context, kind string, limit int) ([]entity.ConversionRun, error) {
	if _, err := r.Dispatch(kind); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return r.runs.ListByKind(ctx, kind, limit)
}
