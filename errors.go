package huffman

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates there is nothing to build a tree from.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnknownSymbol indicates a symbol with no entry in the code table.
	ErrUnknownSymbol = errors.New("symbol not in code table")
	// ErrTruncated indicates the bitstream ended before the recorded symbol count.
	ErrTruncated = errors.New("bitstream truncated")
	// ErrInvalidWalk indicates a bit that leads to no child of the current node.
	ErrInvalidWalk = errors.New("invalid tree walk")
	// ErrMalformedHeader indicates archive metadata that cannot be decoded.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrChecksumMismatch indicates decoded output that does not hash to the stored checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrUntrainedModel indicates Encode was called before a model was trained.
	ErrUntrainedModel = errors.New("model is not trained")
)

// InputError reports input rejected before any tree is built.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "huffman: input: " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// EncodingError reports a failure while producing a bitstream. Offset is the
// input position of Symbol when Err is ErrUnknownSymbol, and -1 otherwise.
type EncodingError struct {
	Symbol byte
	Offset int
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Offset < 0 {
		return "huffman: encode: " + e.Err.Error()
	}
	return fmt.Sprintf("huffman: encode: %v: %#02x at offset %d", e.Err, e.Symbol, e.Offset)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError reports a truncated or corrupt archive. Symbols is how many
// symbols were decoded before the failure.
type DecodingError struct {
	Symbols uint64
	Err     error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("huffman: decode: %v (after %d symbols)", e.Err, e.Symbols)
}

func (e *DecodingError) Unwrap() error { return e.Err }
