package huffman

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/seiflotfy/huffman/tree"
)

const (
	archiveMagic   = "HUFA"
	archiveVersion = uint16(1)

	stageHeader   = "header"
	stageTree     = "tree"
	stageBody     = "body"
	stageChecksum = "checksum"

	stageBodyParamRaw   = uint8(0) // packed bitstream
	stageBodyParamFlate = uint8(1) // flate(packed bitstream)

	headerPayloadLen   = 8 + 2
	checksumPayloadLen = 8

	maxArchiveStages     = 16
	maxStagePayloadBytes = 1 << 30 // 1 GiB
	maxTreePayloadBytes  = (2*tree.Symbols - 1 + tree.Symbols*8 + 7) / 8
)

// Wire format (version 1):
//
//	magic[4] = "HUFA"
//	version  = uint16 little-endian
//	stageCnt = uint16 little-endian
//	repeat stageCnt times:
//	  nameLen  = uint8
//	  paramLen = uint16 little-endian
//	  dataLen  = uint32 little-endian
//	  name     = nameLen bytes
//	  params   = paramLen bytes
//	  payload  = dataLen bytes
//
// Stages:
//
//	header   (required) symbolCount uint64 LE, distinct uint16 LE
//	tree     (required) preorder tree shape, see tree.MarshalBinary
//	body     (required) params[0] = 0 raw | 1 flate; packed bitstream
//	checksum (optional) xxhash64 of the original bytes, uint64 LE
//
// Unknown stages are skipped via dataLen framing.
type wireStageHeader struct {
	name     string
	paramLen uint16
	dataLen  uint32
}

func writeBytes(w io.Writer, b []byte) (int64, error) {
	n, err := w.Write(b)
	if err != nil {
		return int64(n), err
	}
	if n != len(b) {
		return int64(n), io.ErrShortWrite
	}
	return int64(n), nil
}

func writeStage(w io.Writer, name string, params []byte, payload []byte) (int64, error) {
	if len(name) == 0 || len(name) > 255 {
		return 0, fmt.Errorf("invalid stage name length: %d", len(name))
	}
	if len(params) > int(^uint16(0)) {
		return 0, fmt.Errorf("stage params too large for %q: %d", name, len(params))
	}
	if len(payload) > maxStagePayloadBytes {
		return 0, fmt.Errorf("stage payload too large for %q: %d", name, len(payload))
	}

	var hdr [7]byte
	hdr[0] = uint8(len(name))
	binary.LittleEndian.PutUint16(hdr[1:3], uint16(len(params)))
	binary.LittleEndian.PutUint32(hdr[3:7], uint32(len(payload)))

	var total int64
	for _, part := range [][]byte{hdr[:], []byte(name), params, payload} {
		n, err := writeBytes(w, part)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func readStageHeader(r io.Reader) (wireStageHeader, int64, error) {
	var hdr [7]byte
	n, err := io.ReadFull(r, hdr[:])
	total := int64(n)
	if err != nil {
		return wireStageHeader{}, total, err
	}
	nameLen := hdr[0]
	if nameLen == 0 {
		return wireStageHeader{}, total, fmt.Errorf("stage name length must be > 0")
	}
	dataLen := binary.LittleEndian.Uint32(hdr[3:7])
	if dataLen > uint32(maxStagePayloadBytes) {
		return wireStageHeader{}, total, fmt.Errorf("stage payload too large: %d", dataLen)
	}

	nameBytes := make([]byte, int(nameLen))
	n, err = io.ReadFull(r, nameBytes)
	total += int64(n)
	if err != nil {
		return wireStageHeader{}, total, err
	}

	return wireStageHeader{
		name:     string(nameBytes),
		paramLen: binary.LittleEndian.Uint16(hdr[1:3]),
		dataLen:  dataLen,
	}, total, nil
}

// Archive is an encoded stream: the symbol count, the tree needed to decode
// it and the packed bitstream of symbol codes.
type Archive struct {
	SymbolCount uint64     // number of symbols in the original input
	Tree        *tree.Tree // decoding tree
	Body        []byte     // packed codes, MSB first, zero-padded

	Checksum    uint64 // xxhash64 of the original input
	HasChecksum bool

	// bodyFlate lets WriteTo store the body stage deflated when smaller.
	bodyFlate bool
}

// Decode reproduces the original input.
func (a *Archive) Decode() ([]byte, error) {
	if err := validateArchiveStructure(a); err != nil {
		return nil, &DecodingError{Err: err}
	}
	out, err := DecodeSymbols(a.Tree, a.Body, a.SymbolCount)
	if err != nil {
		return nil, err
	}
	if a.HasChecksum {
		if got := xxhash.Sum64(out); got != a.Checksum {
			return nil, &DecodingError{
				Symbols: uint64(len(out)),
				Err:     fmt.Errorf("%w: got %016x want %016x", ErrChecksumMismatch, got, a.Checksum),
			}
		}
	}
	return out, nil
}

// SpaceUsed returns the serialized size of the archive in bytes.
func (a *Archive) SpaceUsed() int {
	n, err := a.WriteTo(io.Discard)
	if err != nil {
		return 0
	}
	return int(n)
}

func validateArchiveStructure(a *Archive) error {
	if a.SymbolCount == 0 {
		return fmt.Errorf("%w: symbol count must be > 0", ErrMalformedHeader)
	}
	if a.Tree == nil {
		return fmt.Errorf("%w: missing tree", ErrMalformedHeader)
	}
	if len(a.Body) > maxStagePayloadBytes {
		return fmt.Errorf("%w: body too large: %d", ErrMalformedHeader, len(a.Body))
	}
	return nil
}

func encodeHeaderStage(a *Archive) []byte {
	payload := make([]byte, headerPayloadLen)
	binary.LittleEndian.PutUint64(payload[:8], a.SymbolCount)
	binary.LittleEndian.PutUint16(payload[8:10], uint16(a.Tree.Leaves()))
	return payload
}

func encodeBodyStage(a *Archive) ([]byte, uint8, error) {
	if !a.bodyFlate {
		return a.Body, stageBodyParamRaw, nil
	}
	flatePayload, err := encodeFlatePayload(a.Body)
	if err != nil {
		return nil, 0, err
	}
	if len(flatePayload) < len(a.Body) {
		return flatePayload, stageBodyParamFlate, nil
	}
	return a.Body, stageBodyParamRaw, nil
}

func encodeFlatePayload(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeFlatePayload(payload []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(payload))
	defer r.Close()

	limited := io.LimitReader(r, maxStagePayloadBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(raw) > maxStagePayloadBytes {
		return nil, fmt.Errorf("flate payload expands beyond limit")
	}
	return raw, nil
}

// WriteTo serializes the Archive to an io.Writer.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	if err := validateArchiveStructure(a); err != nil {
		return 0, fmt.Errorf("invalid archive: %w", err)
	}

	treePayload, err := a.Tree.MarshalBinary()
	if err != nil {
		return 0, err
	}
	bodyPayload, bodyParam, err := encodeBodyStage(a)
	if err != nil {
		return 0, err
	}

	type stage struct {
		name    string
		params  []byte
		payload []byte
	}
	stages := []stage{
		{name: stageHeader, payload: encodeHeaderStage(a)},
		{name: stageTree, payload: treePayload},
		{name: stageBody, params: []byte{bodyParam}, payload: bodyPayload},
	}
	if a.HasChecksum {
		sum := make([]byte, checksumPayloadLen)
		binary.LittleEndian.PutUint64(sum, a.Checksum)
		stages = append(stages, stage{name: stageChecksum, payload: sum})
	}

	var preamble [8]byte
	copy(preamble[:4], archiveMagic)
	binary.LittleEndian.PutUint16(preamble[4:6], archiveVersion)
	binary.LittleEndian.PutUint16(preamble[6:8], uint16(len(stages)))

	total, err := writeBytes(w, preamble[:])
	if err != nil {
		return total, err
	}
	for _, s := range stages {
		n, err := writeStage(w, s.name, s.params, s.payload)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadFrom deserializes an Archive from an io.Reader. Failures are returned
// as *DecodingError wrapping ErrTruncated or ErrMalformedHeader.
func (a *Archive) ReadFrom(r io.Reader) (int64, error) {
	return a.readFrom(r, nil)
}

// corrupt classifies a read failure: running out of bytes is truncation,
// anything else is a malformed header.
func corrupt(err error, format string, args ...any) error {
	kind := ErrMalformedHeader
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		kind = ErrTruncated
	}
	return &DecodingError{Err: fmt.Errorf("%w: %s: %w", kind, fmt.Sprintf(format, args...), err)}
}

func malformed(format string, args ...any) error {
	return &DecodingError{Err: fmt.Errorf("%w: %s", ErrMalformedHeader, fmt.Sprintf(format, args...))}
}

func (a *Archive) readFrom(r io.Reader, cache *treeCache) (int64, error) {
	var preamble [8]byte
	n, err := io.ReadFull(r, preamble[:])
	total := int64(n)
	if err != nil {
		return total, corrupt(err, "read archive preamble at offset 0")
	}
	if string(preamble[:4]) != archiveMagic {
		return total, malformed("invalid archive magic at offset 0: %q", string(preamble[:4]))
	}
	if version := binary.LittleEndian.Uint16(preamble[4:6]); version != archiveVersion {
		return total, malformed("unsupported archive version at offset 4: %d", version)
	}
	stageCount := binary.LittleEndian.Uint16(preamble[6:8])
	if stageCount == 0 || stageCount > maxArchiveStages {
		return total, malformed("invalid stage count at offset 6: %d", stageCount)
	}

	var (
		tmp      Archive
		distinct uint16
	)
	seenStages := make(map[string]bool, stageCount)

	for i := 0; i < int(stageCount); i++ {
		headerOffset := total
		header, n, err := readStageHeader(r)
		total += n
		if err != nil {
			return total, corrupt(err, "read stage header at offset %d (stage index %d)", headerOffset, i)
		}
		if seenStages[header.name] {
			return total, malformed("duplicate stage %q at stage index %d", header.name, i)
		}

		params := make([]byte, int(header.paramLen))
		paramsOffset := total
		nParams, err := io.ReadFull(r, params)
		total += int64(nParams)
		if err != nil {
			return total, corrupt(err, "read stage %q params at offset %d (stage index %d)", header.name, paramsOffset, i)
		}

		switch header.name {
		case stageHeader, stageTree, stageBody, stageChecksum:
		default:
			skipOffset := total
			skipped, err := io.CopyN(io.Discard, r, int64(header.dataLen))
			total += skipped
			if err != nil {
				return total, corrupt(err, "skip unknown stage %q at offset %d (stage index %d)", header.name, skipOffset, i)
			}
			continue
		}

		payload := make([]byte, int(header.dataLen))
		payloadOffset := total
		nPayload, err := io.ReadFull(r, payload)
		total += int64(nPayload)
		if err != nil {
			return total, corrupt(err, "read stage %q payload at offset %d (stage index %d)", header.name, payloadOffset, i)
		}

		var stageErr error
		switch header.name {
		case stageHeader:
			distinct, stageErr = decodeHeaderStage(&tmp, params, payload)
		case stageTree:
			stageErr = decodeTreeStage(&tmp, params, payload, cache)
		case stageBody:
			stageErr = decodeBodyStage(&tmp, params, payload)
		case stageChecksum:
			stageErr = decodeChecksumStage(&tmp, params, payload)
		}
		if stageErr != nil {
			return total, malformed("decode stage %q at offset %d (stage index %d): %v", header.name, payloadOffset, i, stageErr)
		}
		seenStages[header.name] = true
	}

	for _, stageName := range []string{stageHeader, stageTree, stageBody} {
		if !seenStages[stageName] {
			return total, malformed("missing required stage %q", stageName)
		}
	}
	if err := validateArchiveStructure(&tmp); err != nil {
		return total, &DecodingError{Err: err}
	}
	if leaves := tmp.Tree.Leaves(); int(distinct) != leaves {
		return total, malformed("header declares %d distinct symbols, tree has %d", distinct, leaves)
	}

	*a = tmp
	return total, nil
}

func decodeHeaderStage(dst *Archive, params []byte, payload []byte) (uint16, error) {
	if len(params) != 0 {
		return 0, fmt.Errorf("invalid header params: %v", params)
	}
	if len(payload) != headerPayloadLen {
		return 0, fmt.Errorf("header payload length %d, want %d", len(payload), headerPayloadLen)
	}
	dst.SymbolCount = binary.LittleEndian.Uint64(payload[:8])
	distinct := binary.LittleEndian.Uint16(payload[8:10])
	if distinct == 0 || int(distinct) > tree.Symbols {
		return 0, fmt.Errorf("invalid distinct symbol count: %d", distinct)
	}
	return distinct, nil
}

func decodeTreeStage(dst *Archive, params []byte, payload []byte, cache *treeCache) error {
	if len(params) != 0 {
		return fmt.Errorf("invalid tree params: %v", params)
	}
	if len(payload) > maxTreePayloadBytes {
		return fmt.Errorf("tree payload too large: %d", len(payload))
	}

	key := xxhash.Sum64(payload)
	if cached, ok := cache.get(key); ok {
		dst.Tree = cached.tree
		return nil
	}
	t, err := tree.UnmarshalTree(payload)
	if err != nil {
		return err
	}
	cache.add(key, &cachedTree{tree: t})
	dst.Tree = t
	return nil
}

func decodeBodyStage(dst *Archive, params []byte, payload []byte) error {
	if len(params) != 1 {
		return fmt.Errorf("invalid body params: %v", params)
	}
	switch params[0] {
	case stageBodyParamRaw:
		dst.Body = payload
		return nil
	case stageBodyParamFlate:
		raw, err := decodeFlatePayload(payload)
		if err != nil {
			return fmt.Errorf("decode body flate payload: %w", err)
		}
		dst.Body = raw
		dst.bodyFlate = true
		return nil
	default:
		return fmt.Errorf("invalid body params: %v", params)
	}
}

func decodeChecksumStage(dst *Archive, params []byte, payload []byte) error {
	if len(params) != 0 {
		return fmt.Errorf("invalid checksum params: %v", params)
	}
	if len(payload) != checksumPayloadLen {
		return fmt.Errorf("checksum payload length %d, want %d", len(payload), checksumPayloadLen)
	}
	dst.Checksum = binary.LittleEndian.Uint64(payload)
	dst.HasChecksum = true
	return nil
}
