package huffman

import "github.com/seiflotfy/huffman/tree"

// Model is a reusable tree trained from sample data. Inputs encoded with a
// model may only contain symbols that appeared in the samples.
type Model struct {
	config Config
	freqs  FrequencyTable
	built  *cachedTree
}

// NewModel creates an empty model with the provided options.
func NewModel(opts ...Option) *Model {
	return &Model{config: newConfig(opts)}
}

// TrainModel trains a reusable model from sample byte slices.
func TrainModel(samples [][]byte, opts ...Option) (*Model, error) {
	m := NewModel(opts...)
	if err := m.Train(samples); err != nil {
		return nil, err
	}
	return m, nil
}

// Train counts all samples and builds the tree for subsequent Encode calls.
func (m *Model) Train(samples [][]byte) error {
	var freqs FrequencyTable
	for _, s := range samples {
		freqs.add(s)
	}
	if freqs.Total() == 0 {
		return &InputError{Err: ErrEmptyInput}
	}
	built, err := buildTree(&freqs)
	if err != nil {
		return err
	}
	m.freqs = freqs
	m.built = built
	return nil
}

// Encode compresses data using a previously trained model.
func (m *Model) Encode(data []byte) (*Archive, error) {
	if m.built == nil {
		return nil, ErrUntrainedModel
	}
	if len(data) == 0 {
		return nil, &InputError{Err: ErrEmptyInput}
	}
	body, err := EncodeSymbols(data, m.built.codes)
	if err != nil {
		return nil, err
	}
	enc := &Encoder{config: m.config}
	return enc.newArchive(data, m.built.tree, body), nil
}

// Codes returns the trained code table, or nil before training.
func (m *Model) Codes() *tree.CodeTable {
	if m.built == nil {
		return nil
	}
	return m.built.codes
}

// Report returns the efficiency report of the training samples.
func (m *Model) Report() (*Report, error) {
	if m.built == nil {
		return nil, ErrUntrainedModel
	}
	return NewReport(&m.freqs, m.built.codes), nil
}

// Trained reports whether the model is ready for Encode.
func (m *Model) Trained() bool {
	return m.built != nil
}
