package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sems-converter/internal/conversion"
	"sems-converter/internal/entity"
)

// Job is the state machine of one job kind. Readiness is derived from the
// slot paths on every call; there is no cached status.
//
// Process may be called again after a success: it re-runs the conversion and
// replaces the output, so the output slot always holds the latest result.
type Job struct {
	mu      sync.RWMutex
	desc    *entity.JobDescriptor
	convert ConvertFunc
	store   ContentStore
	runs    RunRecorder
	log     *zap.Logger
	now     func() time.Time
}

func newJob(desc *entity.JobDescriptor, convert ConvertFunc, store ContentStore, runs RunRecorder, log *zap.Logger) *Job {
	return &Job{
		desc:    desc,
		convert: convert,
		store:   store,
		runs:    runs,
		log:     log.With(zap.String("kind", desc.Kind)),
		now:     time.Now,
	}
}

func (j *Job) Kind() string { return j.desc.Kind }

// Assign stores data for an input slot, replacing any previous assignment.
func (j *Job) Assign(ctx context.Context, slotName string, data []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	slot, ok := j.desc.FindInputSlot(slotName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSlotNotFound, slotName)
	}

	ref, err := j.store.Save(ctx, entity.BlobKey(j.desc.Kind, slot.Name), data)
	if err != nil {
		return fmt.Errorf("store %q: %w", slot.Name, err)
	}
	if err := j.replace(ctx, slot, ref); err != nil {
		return err
	}

	j.log.Info("slot assigned", zap.String("slot", slot.Name), zap.Int("bytes", len(data)))
	return nil
}

// IsReady reports whether every input slot is assigned.
func (j *Job) IsReady() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.ready()
}

func (j *Job) ready() bool {
	for _, s := range j.desc.Inputs {
		if !s.Assigned() {
			return false
		}
	}
	return true
}

// Process runs the conversion and commits the output slot. The output slot
// is left untouched unless both the conversion and the store write succeed.
// Only a *conversion.ParseError is reported as a ConversionError; store and
// encoding failures are returned as they are.
func (j *Job) Process(ctx context.Context) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.ready() {
		j.log.Debug("process requested before inputs are ready")
		return "", ErrNotReady
	}

	inputs := make([]string, 0, len(j.desc.Inputs))
	for _, s := range j.desc.Inputs {
		inputs = append(inputs, s.Path)
	}
	out := j.desc.Output()

	start := j.now()
	data, err := j.convert(ctx, inputs)
	var pe *conversion.ParseError
	if err != nil && !errors.As(err, &pe) {
		// input unreadable or output not encodable: not the uploader's fault
		j.record(ctx, out.Name, start, err)
		j.log.Error("conversion aborted",
			zap.Int64("duration_ms", j.now().Sub(start).Milliseconds()),
			zap.Error(err),
		)
		return "", fmt.Errorf("%s conversion: %w", j.desc.Kind, err)
	}
	if err != nil {
		cerr := &ConversionError{Kind: j.desc.Kind, Err: err}
		j.record(ctx, out.Name, start, cerr)
		j.log.Warn("conversion failed",
			zap.Int64("duration_ms", j.now().Sub(start).Milliseconds()),
			zap.Error(err),
		)
		return "", cerr
	}

	ref, err := j.store.Save(ctx, entity.BlobKey(j.desc.Kind, out.Name), data)
	if err != nil {
		j.log.Error("store output", zap.String("slot", out.Name), zap.Error(err))
		return "", fmt.Errorf("store %q: %w", out.Name, err)
	}
	if err := j.replace(ctx, out, ref); err != nil {
		return "", err
	}

	j.record(ctx, out.Name, start, nil)
	j.log.Info("conversion done",
		zap.String("slot", out.Name),
		zap.Int("bytes", len(data)),
		zap.Int64("duration_ms", j.now().Sub(start).Milliseconds()),
	)
	return out.Name, nil
}

// RetrieveOutput returns the stored bytes of an output slot.
func (j *Job) RetrieveOutput(ctx context.Context, slotName string) ([]byte, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	slot, ok := j.desc.FindOutputSlot(slotName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSlotNotFound, slotName)
	}
	if !slot.Assigned() {
		return nil, ErrNotAvailable
	}
	data, err := j.store.Read(ctx, slot.Path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", slot.Name, err)
	}
	return data, nil
}

// SlotList is a point-in-time copy of a job's slots.
type SlotList struct {
	Inputs  []entity.Slot
	Outputs []entity.Slot
}

func (j *Job) Slots() SlotList {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return SlotList{Inputs: copySlots(j.desc.Inputs), Outputs: copySlots(j.desc.Outputs)}
}

func copySlots(in []*entity.Slot) []entity.Slot {
	out := make([]entity.Slot, 0, len(in))
	for _, s := range in {
		c := *s
		c.Accept = append([]string(nil), s.Accept...)
		out = append(out, c)
	}
	return out
}

// replace points slot at ref and drops the blob it referenced before, if different.
func (j *Job) replace(ctx context.Context, slot *entity.Slot, ref string) error {
	prev := slot.Path
	slot.Path = ref
	if prev == "" || prev == ref {
		return nil
	}
	if err := j.store.Delete(ctx, prev); err != nil {
		return fmt.Errorf("delete previous %q: %w", slot.Name, err)
	}
	return nil
}

// reset clears every slot and deletes its blob. The caller holds j.mu.
// Blobs at a slot's deterministic location are removed even when the slot is
// empty, which discards leftovers from an earlier process, as are partial
// writes when the store can report them.
func (j *Job) reset(ctx context.Context) error {
	var errs []error
	for _, list := range [][]*entity.Slot{j.desc.Inputs, j.desc.Outputs} {
		for _, s := range list {
			for _, ref := range uniqueRefs(s.Path, j.store.Locate(entity.BlobKey(j.desc.Kind, s.Name))) {
				if err := j.dropBlob(ctx, ref); err != nil {
					errs = append(errs, fmt.Errorf("%s/%s: %w", j.desc.Kind, s.Name, err))
				}
			}
			s.Path = ""
		}
	}
	if sw, ok := j.store.(TempSweeper); ok {
		if err := sw.SweepTemp(ctx, j.desc.Kind); err != nil {
			errs = append(errs, fmt.Errorf("%s: sweep temp files: %w", j.desc.Kind, err))
		}
	}
	return errors.Join(errs...)
}

func (j *Job) dropBlob(ctx context.Context, ref string) error {
	ok, err := j.store.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return j.store.Delete(ctx, ref)
}

func uniqueRefs(refs ...string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r == "" {
			continue
		}
		dup := false
		for _, o := range out {
			if o == r {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

func (j *Job) record(ctx context.Context, output string, start time.Time, convErr error) {
	run := entity.ConversionRun{
		ID:         uuid.New(),
		Kind:       j.desc.Kind,
		Output:     output,
		Status:     entity.RunDone,
		DurationMS: j.now().Sub(start).Milliseconds(),
		CreatedAt:  start.UTC(),
	}
	if convErr != nil {
		msg := convErr.Error()
		run.Status = entity.RunError
		run.Error = &msg
	}
	if err := j.runs.Record(ctx, run); err != nil {
		j.log.Error("record run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}
