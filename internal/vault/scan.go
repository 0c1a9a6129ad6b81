package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/dbx"
	"github.com/dmitrijs2005/leakvault/internal/leak"
	"github.com/dmitrijs2005/leakvault/internal/models"
)

// Scan compares entry id with the candidates from src, records every match
// and marks the entry scanned, in one transaction. The entry is marked even
// when nothing matched.
func (v *Vault) Scan(ctx context.Context, id int64, src leak.Source) (*leak.Report, error) {
	log := v.log.With("file_id", id)

	f, err := v.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.HasPerceptualDigest() {
		log.Info(ctx, "entry is not an image, nothing to scan")
		return nil, fmt.Errorf("%w: file %d", common.ErrNoPerceptualDigest, id)
	}

	candidates, err := src.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: candidates: %w", common.ErrIOFailure, err)
	}

	report := leak.Evaluate(f.PerceptualDigest, candidates, v.threshold)
	report.FileID = id

	for _, s := range report.Skipped {
		if s.Reason == leak.ReasonNotImage {
			log.Debug(ctx, "candidate skipped", "url", s.URL, "reason", s.Reason)
			continue
		}
		log.Warn(ctx, "candidate skipped", "url", s.URL, "reason", s.Reason)
	}

	now := time.Now().UTC()
	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		results := v.repos.ScanResults(tx)
		for _, m := range report.Matches {
			_, err := results.Insert(ctx, &models.ScanResult{
				FileID:          id,
				URL:             m.URL,
				FoundAt:         now,
				SimilarityScore: m.Distance,
			})
			if err != nil {
				return err
			}
		}
		return v.repos.Files(tx).MarkScanned(ctx, id, now)
	})
	if err != nil {
		log.Error(ctx, "failed to record scan", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}

	if len(report.Matches) > 0 {
		log.Warn(ctx, "possible leak found", "matches", len(report.Matches), "checked", report.Checked)
	} else {
		log.Info(ctx, "scan complete, no match", "checked", report.Checked)
	}
	return &report, nil
}
