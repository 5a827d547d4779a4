package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// ArchiveImpl implements domain.Archiver by querying the stores for aged
// records, serializing them to JSONL, uploading the result to S3, and then
// pruning the archived rows from the primary store. Rows are deleted only
// after the upload succeeded; a failed upload leaves the database untouched.
type ArchiveImpl struct {
	writer  domain.BlobWriter
	matches domain.MatchStore
	opps    domain.OpportunityStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, matches domain.MatchStore, opps domain.OpportunityStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:  writer,
		matches: matches,
		opps:    opps,
	}
}

// ArchiveMatches uploads all matches that commenced before the cutoff to
// archive/matches/YYYY-MM.jsonl and removes them from the database. It
// returns the number of records archived.
func (a *ArchiveImpl) ArchiveMatches(ctx context.Context, before time.Time) (int64, error) {
	matches, err := a.matches.ListCommencedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive matches query: %w", err)
	}
	if len(matches) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(matches)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive matches marshal: %w", err)
	}

	path := archivePath("matches", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive matches upload: %w", err)
	}

	deleted, err := a.matches.DeleteCommencedBefore(ctx, before)
	if err != nil {
		return int64(len(matches)), fmt.Errorf("s3blob: archive matches prune: %w", err)
	}
	return deleted, nil
}

// ArchiveOpportunities uploads past opportunities last updated before the
// cutoff to archive/opportunities/YYYY-MM.jsonl and removes them from the
// database. Live opportunities are never archived. It returns the number of
// records archived.
func (a *ArchiveImpl) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	opps, err := a.opps.ListPastUpdatedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities query: %w", err)
	}
	if len(opps) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(opps)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities marshal: %w", err)
	}

	path := archivePath("opportunities", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities upload: %w", err)
	}

	deleted, err := a.opps.DeletePastUpdatedBefore(ctx, before)
	if err != nil {
		return int64(len(opps)), fmt.Errorf("s3blob: archive opportunities prune: %w", err)
	}
	return deleted, nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/matches/2025-01.jsonl
//	archive/opportunities/2025-01.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
