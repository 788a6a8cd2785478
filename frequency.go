package huffman

import (
	"context"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// minShardBytes keeps tiny inputs on a single goroutine.
const minShardBytes = 64 * 1024

// FrequencyTable holds the occurrence count of every byte value. A zero count
// means the symbol is absent.
type FrequencyTable [256]uint64

// CountFrequencies scans data once and counts each byte.
func CountFrequencies(data []byte) (FrequencyTable, error) {
	var ft FrequencyTable
	if len(data) == 0 {
		return ft, &InputError{Err: ErrEmptyInput}
	}
	ft.add(data)
	return ft, nil
}

// CountFrequenciesParallel splits data into up to workers contiguous shards,
// counts each shard into a local table and merges the results. The result is
// identical to CountFrequencies.
func CountFrequenciesParallel(ctx context.Context, data []byte, workers int) (FrequencyTable, error) {
	if len(data) == 0 {
		return FrequencyTable{}, &InputError{Err: ErrEmptyInput}
	}
	shards := workers
	if limit := len(data) / minShardBytes; shards > limit {
		shards = limit
	}
	if shards <= 1 {
		return CountFrequencies(data)
	}

	locals := make([]FrequencyTable, shards)
	shardLen := (len(data) + shards - 1) / shards

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		start := i * shardLen
		end := min(start+shardLen, len(data))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			locals[i].add(data[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FrequencyTable{}, err
	}

	var ft FrequencyTable
	for i := range locals {
		ft.Merge(&locals[i])
	}
	return ft, nil
}

func (ft *FrequencyTable) add(data []byte) {
	for _, b := range data {
		ft[b]++
	}
}

// Merge adds the counts of other into ft.
func (ft *FrequencyTable) Merge(other *FrequencyTable) {
	for i, c := range other {
		ft[i] += c
	}
}

// Total returns the sum of all counts.
func (ft *FrequencyTable) Total() uint64 {
	var total uint64
	for _, c := range ft {
		total += c
	}
	return total
}

// Distinct returns the present symbols in ascending order.
func (ft *FrequencyTable) Distinct() []byte {
	syms := make([]byte, 0, 16)
	for i, c := range ft {
		if c > 0 {
			syms = append(syms, byte(i))
		}
	}
	return syms
}

// fingerprint hashes the table for cache lookups.
func (ft *FrequencyTable) fingerprint() uint64 {
	var buf [256 * 8]byte
	for i, c := range ft {
		binary.LittleEndian.PutUint64(buf[i*8:], c)
	}
	return xxhash.Sum64(buf[:])
}
