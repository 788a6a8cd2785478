// Package huffman implements a static, two-pass Huffman codec over bytes.
//
// The input is counted, a prefix-free code is built from the counts, and the
// codes of all symbols are packed MSB-first into a bitstream. An Archive holds
// everything needed to reproduce the input: the symbol count, the tree shape
// and the packed body.
package huffman

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/seiflotfy/huffman/tree"
)

const (
	defaultWorkers = 1
	maxWorkers     = 256
	maxTreeCache   = 1 << 16
)

// Config holds configuration for the encoder and decoder.
type Config struct {
	Workers     int  // Frequency counting shards (0 = sequential)
	TreeCache   int  // Capacity of the built-tree LRU (0 = disabled)
	NoChecksum  bool // Omit the checksum stage from archives
	NoBodyFlate bool // Always store the body stage raw
}

// Option is a functional option for configuring the codec.
type Option func(*Config)

// WithWorkers sets how many goroutines count frequencies. Values are clamped
// to [1, 256]. Small inputs are always counted on one goroutine.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithTreeCache keeps up to size built trees in an LRU. The encoder keys it
// by frequency table and the decoder by serialized tree.
func WithTreeCache(size int) Option {
	return func(c *Config) {
		c.TreeCache = size
	}
}

// WithChecksum controls whether archives carry an xxhash64 of the input.
// Enabled by default.
func WithChecksum(on bool) Option {
	return func(c *Config) {
		c.NoChecksum = !on
	}
}

// WithBodyFlate controls whether the body stage may be stored deflated when
// that is smaller. Enabled by default.
func WithBodyFlate(on bool) Option {
	return func(c *Config) {
		c.NoBodyFlate = !on
	}
}

func newConfig(opts []Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func resolveWorkers(cfg Config) int {
	switch {
	case cfg.Workers <= 0:
		return defaultWorkers
	case cfg.Workers > maxWorkers:
		return maxWorkers
	default:
		return cfg.Workers
	}
}

func resolveTreeCache(cfg Config) int {
	switch {
	case cfg.TreeCache <= 0:
		return 0
	case cfg.TreeCache > maxTreeCache:
		return maxTreeCache
	default:
		return cfg.TreeCache
	}
}

// Encoder counts, builds a tree and encodes data. It is safe for concurrent
// use.
type Encoder struct {
	config Config
	cache  *treeCache
}

// NewEncoder creates a new encoder with the given options.
func NewEncoder(opts ...Option) *Encoder {
	cfg := newConfig(opts)
	return &Encoder{config: cfg, cache: newTreeCache(resolveTreeCache(cfg))}
}

// Encode compresses data into an Archive.
func (e *Encoder) Encode(data []byte) (*Archive, error) {
	return e.EncodeContext(context.Background(), data)
}

// EncodeContext is Encode with a context for the parallel counting stage.
func (e *Encoder) EncodeContext(ctx context.Context, data []byte) (*Archive, error) {
	freqs, err := e.count(ctx, data)
	if err != nil {
		return nil, err
	}
	built, err := e.build(&freqs)
	if err != nil {
		return nil, err
	}
	body, err := EncodeSymbols(data, built.codes)
	if err != nil {
		return nil, err
	}
	return e.newArchive(data, built.tree, body), nil
}

// Analyze counts data and builds its code table without encoding, returning
// the efficiency report.
func (e *Encoder) Analyze(ctx context.Context, data []byte) (*Report, error) {
	freqs, err := e.count(ctx, data)
	if err != nil {
		return nil, err
	}
	built, err := e.build(&freqs)
	if err != nil {
		return nil, err
	}
	return NewReport(&freqs, built.codes), nil
}

func (e *Encoder) count(ctx context.Context, data []byte) (FrequencyTable, error) {
	workers := resolveWorkers(e.config)
	if workers == 1 {
		return CountFrequencies(data)
	}
	return CountFrequenciesParallel(ctx, data, workers)
}

func (e *Encoder) build(freqs *FrequencyTable) (*cachedTree, error) {
	key := freqs.fingerprint()
	if built, ok := e.cache.get(key); ok {
		return built, nil
	}
	built, err := buildTree(freqs)
	if err != nil {
		return nil, err
	}
	e.cache.add(key, built)
	return built, nil
}

func (e *Encoder) newArchive(data []byte, t *tree.Tree, body []byte) *Archive {
	a := &Archive{
		SymbolCount: uint64(len(data)),
		Tree:        t,
		Body:        body,
		bodyFlate:   !e.config.NoBodyFlate,
	}
	if !e.config.NoChecksum {
		a.Checksum = xxhash.Sum64(data)
		a.HasChecksum = true
	}
	return a
}

// buildTree maps tree package failures onto the codec's error taxonomy.
func buildTree(freqs *FrequencyTable) (*cachedTree, error) {
	t, err := tree.Build(freqs[:])
	if err != nil {
		if errors.Is(err, tree.ErrNoSymbols) {
			return nil, &InputError{Err: ErrEmptyInput}
		}
		return nil, &EncodingError{Offset: -1, Err: err}
	}
	codes, err := t.Codes()
	if err != nil {
		return nil, &EncodingError{Offset: -1, Err: err}
	}
	return &cachedTree{tree: t, codes: codes}, nil
}

// Decoder reads archives back into the original bytes. It is safe for
// concurrent use.
type Decoder struct {
	cache *treeCache
}

// NewDecoder creates a decoder. Only WithTreeCache affects decoding.
func NewDecoder(opts ...Option) *Decoder {
	cfg := newConfig(opts)
	return &Decoder{cache: newTreeCache(resolveTreeCache(cfg))}
}

// DecodeFrom reads one archive from r and decodes it.
func (d *Decoder) DecodeFrom(r io.Reader) ([]byte, error) {
	var a Archive
	if _, err := a.readFrom(r, d.cache); err != nil {
		return nil, err
	}
	return a.Decode()
}

// Decode decodes an archive held in memory.
func (d *Decoder) Decode(b []byte) ([]byte, error) {
	return d.DecodeFrom(bytes.NewReader(b))
}

// Compress encodes data with opts and returns the serialized archive.
func Compress(data []byte, opts ...Option) ([]byte, error) {
	a, err := NewEncoder(opts...).Encode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes a serialized archive.
func Decompress(b []byte) ([]byte, error) {
	return NewDecoder().Decode(b)
}
