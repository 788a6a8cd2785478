package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/seiflotfy/huffman"
	"github.com/seiflotfy/huffman/internal/logger"
	"github.com/seiflotfy/huffman/internal/repo"
)

// Summary describes a stored archive.
type Summary struct {
	ID           string          `json:"id"`
	Symbols      uint64          `json:"symbols"`
	ArchiveBytes int             `json:"archive_bytes"`
	Report       *huffman.Report `json:"report"`
}

type ArchiveService struct {
	repo   repo.ArchiveRepo
	enc    *huffman.Encoder
	dec    *huffman.Decoder
	logger logger.Logger
	now    func() time.Time
}

func NewArchiveService(r repo.ArchiveRepo, enc *huffman.Encoder, dec *huffman.Decoder, l logger.Logger) *ArchiveService {
	return &ArchiveService{repo: r, enc: enc, dec: dec, logger: l, now: time.Now}
}

// ArchiveID is the hex xxhash64 of the serialized archive.
func ArchiveID(archive []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(archive))
}

// Create compresses data and stores the archive.
func (s *ArchiveService) Create(ctx context.Context, data []byte) (*Summary, error) {
	report, err := s.enc.Analyze(ctx, data)
	if err != nil {
		return nil, err
	}
	archive, err := s.Compress(ctx, data)
	if err != nil {
		return nil, err
	}

	rec := &repo.Record{
		ID:        ArchiveID(archive),
		Symbols:   uint64(len(data)),
		Data:      archive,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Errorf("save archive %s: %v", rec.ID, err)
		return nil, err
	}
	s.logger.Infof("archive stored: %s (%d -> %d bytes)", rec.ID, len(data), len(archive))
	return &Summary{
		ID:           rec.ID,
		Symbols:      rec.Symbols,
		ArchiveBytes: len(archive),
		Report:       report,
	}, nil
}

func (s *ArchiveService) Get(ctx context.Context, id string) (*repo.Record, error) {
	return s.repo.FindByID(ctx, id)
}

// Content decodes a stored archive.
func (s *ArchiveService) Content(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := s.dec.Decode(rec.Data)
	if err != nil {
		s.logger.Errorf("decode stored archive %s: %v", id, err)
		return nil, err
	}
	return out, nil
}

// Compress returns the serialized archive of data without storing it.
func (s *ArchiveService) Compress(ctx context.Context, data []byte) ([]byte, error) {
	archive, err := s.enc.EncodeContext(ctx, data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := archive.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ArchiveService) Decompress(_ context.Context, archive []byte) ([]byte, error) {
	return s.dec.Decode(archive)
}
