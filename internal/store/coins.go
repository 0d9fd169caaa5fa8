package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mintada/internal/catalog"
)

// Coin loads a coin type with its live samples, reference first. It returns
// nil when the coin does not exist.
func (s *Store) Coin(ctx context.Context, id int64) (*catalog.Coin, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+coinColumns+`
        FROM coin_types ct JOIN issuers i ON i.id = ct.issuer_id
        WHERE ct.id = ?`, id)
	coin, err := scanCoin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coin: %w", err)
	}
	samples, err := s.liveSamples(ctx, id)
	if err != nil {
		return nil, err
	}
	coin.Samples = samples
	coin.SortSamples()
	return coin, nil
}

// CoinsForIssuer lists an issuer's coin types ordered by title, each with its
// live samples.
func (s *Store) CoinsForIssuer(ctx context.Context, issuerID int64) ([]*catalog.Coin, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+coinColumns+`
        FROM coin_types ct JOIN issuers i ON i.id = ct.issuer_id
        WHERE ct.issuer_id = ? ORDER BY ct.title, ct.id`, issuerID)
	if err != nil {
		return nil, fmt.Errorf("query coins: %w", err)
	}
	var coins []*catalog.Coin
	for rows.Next() {
		coin, err := scanCoin(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan coin: %w", err)
		}
		coins = append(coins, coin)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, coin := range coins {
		if coin.Samples, err = s.liveSamples(ctx, coin.ID); err != nil {
			return nil, err
		}
		coin.SortSamples()
	}
	return coins, nil
}

// liveSamples returns the coin's non-removed samples. Rows referencing
// neither face are skipped.
func (s *Store) liveSamples(ctx context.Context, coinID int64) ([]catalog.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sampleColumns+` FROM coin_type_samples
        WHERE coin_type_id = ? AND removed = 0 ORDER BY id`, coinID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []catalog.Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if !sample.Valid() {
			continue
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// SampleByID fetches a single sample including removed ones. It returns nil
// when the row does not exist.
func (s *Store) SampleByID(ctx context.Context, id int64) (*catalog.Sample, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+sampleColumns+` FROM coin_type_samples WHERE id = ?`, id)
	sample, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sample: %w", err)
	}
	return &sample, nil
}

// SetCoinFixed records the curation status of a coin type.
func (s *Store) SetCoinFixed(ctx context.Context, coinID int64, fixed bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE coin_types SET fixed = ? WHERE id = ?`, boolToInt(fixed), coinID)
	if err != nil {
		return fmt.Errorf("update coin fixed: %w", err)
	}
	return expectRows(res, 1, "coin type")
}

// UpdateSampleImages replaces both image names of a sample.
func (s *Store) UpdateSampleImages(ctx context.Context, sampleID int64, obverse, reverse string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE coin_type_samples SET obverse_image = ?, reverse_image = ? WHERE id = ? AND removed = 0`,
		nullableString(obverse), nullableString(reverse), sampleID)
	if err != nil {
		return fmt.Errorf("update sample images: %w", err)
	}
	return expectRows(res, 1, "sample")
}

// PromoteSample makes sampleID the coin's reference and demotes any previous
// reference to secondary. It returns the demoted sample id, or 0.
func (s *Store) PromoteSample(ctx context.Context, coinID, sampleID int64) (int64, error) {
	var demoted int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		demoted = 0
		err := tx.QueryRowContext(ctx, `SELECT id FROM coin_type_samples
            WHERE coin_type_id = ? AND sample_type = ? AND removed = 0 AND id <> ?`,
			coinID, catalog.SampleReference, sampleID).Scan(&demoted)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("find reference: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE coin_type_samples SET sample_type = ?
            WHERE coin_type_id = ? AND sample_type = ? AND removed = 0 AND id <> ?`,
			catalog.SampleSecondary, coinID, catalog.SampleReference, sampleID); err != nil {
			return fmt.Errorf("demote reference: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE coin_type_samples SET sample_type = ?
            WHERE id = ? AND coin_type_id = ? AND removed = 0`,
			catalog.SampleReference, sampleID, coinID)
		if err != nil {
			return fmt.Errorf("promote sample: %w", err)
		}
		return expectRows(res, 1, "sample")
	})
	if err != nil {
		return 0, err
	}
	return demoted, nil
}

// SwapSampleFaces exchanges obverse and reverse names of every listed sample.
func (s *Store) SwapSampleFaces(ctx context.Context, sampleIDs []int64) error {
	if len(sampleIDs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE coin_type_samples
            SET obverse_image = reverse_image, reverse_image = obverse_image
            WHERE removed = 0 AND id IN (`+makePlaceholders(len(sampleIDs))+`)`, int64Args(sampleIDs)...)
		if err != nil {
			return fmt.Errorf("swap faces: %w", err)
		}
		return expectRows(res, int64(len(sampleIDs)), "sample")
	})
}

// TransferSample moves a sample to another coin type as a secondary sample.
func (s *Store) TransferSample(ctx context.Context, sampleID, targetCoinID int64) error {
	res, err := s.execWithRetry(ctx, `UPDATE coin_type_samples SET coin_type_id = ?, sample_type = ?
        WHERE id = ? AND removed = 0`, targetCoinID, catalog.SampleSecondary, sampleID)
	if err != nil {
		return fmt.Errorf("transfer sample: %w", err)
	}
	return expectRows(res, 1, "sample")
}

// SoftDeleteSamples flags the listed samples as removed.
func (s *Store) SoftDeleteSamples(ctx context.Context, sampleIDs []int64) error {
	if len(sampleIDs) == 0 {
		return nil
	}
	res, err := s.execWithRetry(ctx, `UPDATE coin_type_samples SET removed = 1
        WHERE removed = 0 AND id IN (`+makePlaceholders(len(sampleIDs))+`)`, int64Args(sampleIDs)...)
	if err != nil {
		return fmt.Errorf("soft delete samples: %w", err)
	}
	return expectRows(res, int64(len(sampleIDs)), "sample")
}

// ResolveDuplicates soft-deletes losers and, when promote is set, makes the
// survivor the coin's reference, all in one transaction.
func (s *Store) ResolveDuplicates(ctx context.Context, survivorID int64, losers []int64, promote bool) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if len(losers) > 0 {
			res, err := tx.ExecContext(ctx, `UPDATE coin_type_samples SET removed = 1
                WHERE removed = 0 AND id IN (`+makePlaceholders(len(losers))+`)`, int64Args(losers)...)
			if err != nil {
				return fmt.Errorf("remove duplicates: %w", err)
			}
			if err := expectRows(res, int64(len(losers)), "sample"); err != nil {
				return err
			}
		}
		if !promote {
			return nil
		}
		res, err := tx.ExecContext(ctx, `UPDATE coin_type_samples SET sample_type = ? WHERE id = ? AND removed = 0`,
			catalog.SampleReference, survivorID)
		if err != nil {
			return fmt.Errorf("promote survivor: %w", err)
		}
		return expectRows(res, 1, "sample")
	})
}

// SetSampleTags persists the attribute flags of every listed sample.
func (s *Store) SetSampleTags(ctx context.Context, sampleIDs []int64, tags catalog.Tags) error {
	if len(sampleIDs) == 0 {
		return nil
	}
	args := []any{
		boolToInt(tags.Holder),
		boolToInt(tags.Counterstamped),
		boolToInt(tags.Roll),
		boolToInt(tags.ContainsHolder),
		boolToInt(tags.ContainsText),
		boolToInt(tags.MultiCoin),
	}
	args = append(args, int64Args(sampleIDs)...)
	res, err := s.execWithRetry(ctx, `UPDATE coin_type_samples
        SET is_holder = ?, is_counterstamped = ?, is_roll = ?,
            contains_holder = ?, contains_text = ?, is_multi_coin = ?
        WHERE removed = 0 AND id IN (`+makePlaceholders(len(sampleIDs))+`)`, args...)
	if err != nil {
		return fmt.Errorf("update sample tags: %w", err)
	}
	return expectRows(res, int64(len(sampleIDs)), "sample")
}

// ErrRowsMismatch reports an update that touched fewer rows than expected,
// typically because a sample was removed concurrently.
var ErrRowsMismatch = errors.New("unexpected number of rows updated")

func expectRows(res sql.Result, want int64, what string) error {
	got, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if got != want {
		return fmt.Errorf("%w: %s: updated %d of %d", ErrRowsMismatch, what, got, want)
	}
	return nil
}
