package store

import (
	"context"
	"fmt"

	"mintada/internal/catalog"
)

// Catalog rows are normally produced by the scraper ingestion. These inserts
// exist for imports and fixtures.

// InsertIssuer stores an issuer and returns its id.
func (s *Store) InsertIssuer(ctx context.Context, issuer catalog.Issuer) (int64, error) {
	res, err := s.execWithRetry(ctx, `INSERT INTO issuers (`+issuerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableID(issuer.ID),
		issuer.Name,
		issuer.Slug,
		nullableString(issuer.ParentSlug),
		nullableString(issuer.TerritoryType),
		boolToInt(issuer.IsSection),
		boolToInt(issuer.IsHistoricalPeriod),
	)
	if err != nil {
		return 0, fmt.Errorf("insert issuer: %w", err)
	}
	return res.LastInsertId()
}

// InsertCoin stores a coin type (without samples) and returns its id.
func (s *Store) InsertCoin(ctx context.Context, coin catalog.Coin) (int64, error) {
	res, err := s.execWithRetry(ctx, `INSERT INTO coin_types (id, issuer_id, title, subtitle, coin_type_slug, period, fixed)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableID(coin.ID),
		coin.IssuerID,
		coin.Title,
		nullableString(coin.Subtitle),
		coin.Slug,
		nullableString(coin.Period),
		boolToInt(coin.Fixed),
	)
	if err != nil {
		return 0, fmt.Errorf("insert coin: %w", err)
	}
	return res.LastInsertId()
}

// InsertSample stores a sample and returns its id.
func (s *Store) InsertSample(ctx context.Context, sample catalog.Sample) (int64, error) {
	res, err := s.execWithRetry(ctx, `INSERT INTO coin_type_samples (`+sampleColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(sample.ID),
		sample.CoinTypeID,
		nullableString(sample.ObverseImage),
		nullableString(sample.ReverseImage),
		int(sample.Type),
		boolToInt(sample.Removed),
		boolToInt(sample.Tags.Holder),
		boolToInt(sample.Tags.Counterstamped),
		boolToInt(sample.Tags.Roll),
		boolToInt(sample.Tags.ContainsHolder),
		boolToInt(sample.Tags.ContainsText),
		boolToInt(sample.Tags.MultiCoin),
	)
	if err != nil {
		return 0, fmt.Errorf("insert sample: %w", err)
	}
	return res.LastInsertId()
}

// InsertRuler stores a ruler row and returns its row id.
func (s *Store) InsertRuler(ctx context.Context, r catalog.Ruler) (int64, error) {
	res, err := s.execWithRetry(ctx, `INSERT INTO issuers_rulers_rel (`+rulerColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(r.RowID),
		r.RulerID,
		r.IssuerLabel,
		r.Name,
		nullableString(r.YearsText),
		nullableString(r.Period),
		r.PeriodOrder,
		r.SubperiodOrder,
		nullableInt64(r.IssuerID),
		boolToInt(r.IsManual),
	)
	if err != nil {
		return 0, fmt.Errorf("insert ruler: %w", err)
	}
	return res.LastInsertId()
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
