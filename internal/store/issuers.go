package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mintada/internal/catalog"
)

// Issuers returns every issuer ordered by name.
func (s *Store) Issuers(ctx context.Context) ([]catalog.Issuer, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+issuerColumns+` FROM issuers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query issuers: %w", err)
	}
	defer rows.Close()

	var issuers []catalog.Issuer
	for rows.Next() {
		issuer, err := scanIssuer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issuer: %w", err)
		}
		issuers = append(issuers, issuer)
	}
	return issuers, rows.Err()
}

// Issuer fetches one issuer, or nil when it does not exist.
func (s *Store) Issuer(ctx context.Context, id int64) (*catalog.Issuer, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+issuerColumns+` FROM issuers WHERE id = ?`, id)
	issuer, err := scanIssuer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get issuer: %w", err)
	}
	return &issuer, nil
}

// CountLeafIssuersNamed counts non-section issuers with exactly this name.
func (s *Store) CountLeafIssuersNamed(ctx context.Context, name string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM issuers WHERE name = ? AND is_section = 0`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count leaf issuers: %w", err)
	}
	return count, nil
}

// CoinFilter narrows IssuerIDsWithCoins.
type CoinFilter struct {
	// NonReferenceOnly keeps coins with at least one live non-reference sample.
	NonReferenceOnly bool
	HideFixed        bool
	OnlyFixed        bool
}

// IssuerIDsWithCoins returns issuers owning at least one coin with live
// samples that passes the filter.
func (s *Store) IssuerIDsWithCoins(ctx context.Context, filter CoinFilter) (map[int64]struct{}, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT DISTINCT issuer_id FROM (
        SELECT ct.issuer_id AS issuer_id
        FROM coin_types ct JOIN coin_type_samples cts ON ct.id = cts.coin_type_id
        WHERE cts.removed = 0 `)
	switch {
	case filter.HideFixed:
		sb.WriteString(`AND ct.fixed = 0 `)
	case filter.OnlyFixed:
		sb.WriteString(`AND ct.fixed = 1 `)
	}
	sb.WriteString(`GROUP BY ct.id `)
	if filter.NonReferenceOnly {
		sb.WriteString(`HAVING COUNT(CASE WHEN cts.sample_type <> 1 THEN 1 END) > 0`)
	}
	sb.WriteString(`)`)

	rows, err := s.db.QueryContext(ensureContext(ctx), sb.String())
	if err != nil {
		return nil, fmt.Errorf("query issuers with coins: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan issuer id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
