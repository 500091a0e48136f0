package entity

import "fmt"

// Slot is one named input or output artifact of a job.
// An empty Path means the slot is unassigned.
type Slot struct {
	Name   string   `json:"name"`
	Accept []string `json:"accept,omitempty"`
	Path   string   `json:"-"`
}

func (s *Slot) Assigned() bool { return s.Path != "" }

// JobDescriptor is a job kind with ordered input and output slots.
// Input order is the argument order of the kind's converter.
type JobDescriptor struct {
	Kind    string
	Inputs  []*Slot
	Outputs []*Slot
}

func NewJobDescriptor(kind string, inputs, outputs []*Slot) (*JobDescriptor, error) {
	if kind == "" {
		return nil, fmt.Errorf("job kind is required")
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("job %q: exactly one output slot expected, got %d", kind, len(outputs))
	}
	if err := uniqueNames(inputs); err != nil {
		return nil, fmt.Errorf("job %q inputs: %w", kind, err)
	}
	if err := uniqueNames(outputs); err != nil {
		return nil, fmt.Errorf("job %q outputs: %w", kind, err)
	}
	return &JobDescriptor{Kind: kind, Inputs: inputs, Outputs: outputs}, nil
}

func uniqueNames(slots []*Slot) error {
	seen := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		if s.Name == "" {
			return fmt.Errorf("empty slot name")
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("duplicate slot name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

func (d *JobDescriptor) FindInputSlot(name string) (*Slot, bool) {
	return findByName(d.Inputs, name)
}

func (d *JobDescriptor) FindOutputSlot(name string) (*Slot, bool) {
	return findByName(d.Outputs, name)
}

func findByName(slots []*Slot, name string) (*Slot, bool) {
	for _, s := range slots {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Output returns the job's single output slot.
func (d *JobDescriptor) Output() *Slot { return d.Outputs[0] }

// BlobKey is the content store key of a slot: {kind}/{slot}.
func BlobKey(kind, slot string) string { return kind + "/" + slot }

const (
	KindElection = "election"
	KindTallies  = "tallies"

	SlotSEMSMain     = "SEMS main file"
	SlotSEMSMapping  = "SEMS candidate mapping file"
	SlotVxDefinition = "Vx Election Definition"
	SlotVxTallies    = "Vx Tallies"
	SlotSEMSResults  = "SEMS Results"
)

// ElectionJob converts a SEMS main file and candidate mapping into a Vx election definition.
func ElectionJob() *JobDescriptor {
	d, _ := NewJobDescriptor(KindElection,
		[]*Slot{
			{Name: SlotSEMSMain, Accept: []string{".txt", "text/plain"}},
			{Name: SlotSEMSMapping, Accept: []string{".txt", "text/plain"}},
		},
		[]*Slot{{Name: SlotVxDefinition}},
	)
	return d
}

// TalliesJob converts a Vx election definition and Vx tallies into SEMS results.
func TalliesJob() *JobDescriptor {
	d, _ := NewJobDescriptor(KindTallies,
		[]*Slot{
			{Name: SlotVxDefinition, Accept: []string{".json", "application/json"}},
			{Name: SlotVxTallies, Accept: []string{".json", "application/json"}},
		},
		[]*Slot{{Name: SlotSEMSResults}},
	)
	return d
}
