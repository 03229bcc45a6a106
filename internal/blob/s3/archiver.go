package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

// Narrow store interfaces for archival. The Postgres stores satisfy
// them through their ListBefore/DeleteBefore methods.

// RecommendationArchiveStore reads and drains aged recommendations.
type RecommendationArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.BetRecommendation, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ArbArchiveStore reads and drains aged arbitrage history.
type ArbArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.ArbitrageOpportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// RunArchiveStore reads and drains aged evaluation runs.
type RunArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.EvaluationRun, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ArchiveImpl implements domain.Archiver: aged rows are serialized to
// JSONL, uploaded, then deleted from the primary store so retention
// actually shrinks the tables. Each archival leaves an audit entry.
//
// Recommendations and arbs must be archived before runs: deleting a
// run cascades to its children.
type ArchiveImpl struct {
	writer domain.BlobWriter
	recs   RecommendationArchiveStore
	arbs   ArbArchiveStore
	runs   RunArchiveStore
	audit  domain.AuditStore
}

// NewArchiver creates an ArchiveImpl over the given writer and stores.
func NewArchiver(
	writer domain.BlobWriter,
	recs RecommendationArchiveStore,
	arbs ArbArchiveStore,
	runs RunArchiveStore,
	audit domain.AuditStore,
) *ArchiveImpl {
	return &ArchiveImpl{
		writer: writer,
		recs:   recs,
		arbs:   arbs,
		runs:   runs,
		audit:  audit,
	}
}

// ArchiveRecommendations moves recommendations created before the
// cutoff to archive/recommendations/{date}.jsonl and returns the count.
func (a *ArchiveImpl) ArchiveRecommendations(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.recs.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive recommendations query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}
	return archiveRecords(ctx, a.writer, a.audit, "recommendations", before, recs, a.recs.DeleteBefore)
}

// ArchiveArbs moves arbitrage rows detected before the cutoff to
// archive/arb_history/{date}.jsonl and returns the count.
func (a *ArchiveImpl) ArchiveArbs(ctx context.Context, before time.Time) (int64, error) {
	opps, err := a.arbs.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive arbs query: %w", err)
	}
	if len(opps) == 0 {
		return 0, nil
	}
	return archiveRecords(ctx, a.writer, a.audit, "arb_history", before, opps, a.arbs.DeleteBefore)
}

// ArchiveRuns moves evaluation runs started before the cutoff to
// archive/evaluation_runs/{date}.jsonl and returns the count.
func (a *ArchiveImpl) ArchiveRuns(ctx context.Context, before time.Time) (int64, error) {
	runs, err := a.runs.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive runs query: %w", err)
	}
	if len(runs) == 0 {
		return 0, nil
	}
	return archiveRecords(ctx, a.writer, a.audit, "evaluation_runs", before, runs, a.runs.DeleteBefore)
}

// archiveRecords uploads records as JSONL, deletes the source rows
// once the upload succeeded, and records the event.
func archiveRecords[T any](
	ctx context.Context,
	writer domain.BlobWriter,
	audit domain.AuditStore,
	kind string,
	before time.Time,
	records []T,
	deleteBefore func(context.Context, time.Time) (int64, error),
) (int64, error) {
	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive %s marshal: %w", kind, err)
	}

	path := archivePath(kind, before)
	if err := writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive %s upload: %w", kind, err)
	}

	deleted, err := deleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive %s delete: %w", kind, err)
	}

	if err := audit.Log(ctx, "archive."+kind, map[string]any{
		"path":    path,
		"count":   len(records),
		"deleted": deleted,
		"before":  before.Format(time.RFC3339),
	}); err != nil {
		return deleted, fmt.Errorf("s3blob: archive %s audit log: %w", kind, err)
	}

	return deleted, nil
}

// archivePath partitions archive files by the cutoff date, one file
// per daily archival cycle.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.UTC().Format("2006-01-02"))
}

// marshalJSONL serializes records as newline-delimited JSON.
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
