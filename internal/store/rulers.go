package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mintada/internal/catalog"
)

// matchClause renders a ruler predicate as SQL over issuers_rulers_rel.
func matchClause(m catalog.RulerMatch) (string, []any) {
	switch {
	case m.AllowSimple && m.AllowCombined:
		return `(issuer_name = ? OR issuer_name LIKE ? ESCAPE '\')`, []any{m.Name, m.CombinedPattern()}
	case m.AllowSimple:
		return `(issuer_name = ?)`, []any{m.Name}
	case m.AllowCombined:
		return `(issuer_name LIKE ? ESCAPE '\')`, []any{m.CombinedPattern()}
	default:
		return `(0)`, nil
	}
}

// ApplyRulerMatch claims unclaimed or self-claimed non-manual rows matching m
// and releases non-manual rows claimed by issuerID that no longer match.
func (s *Store) ApplyRulerMatch(ctx context.Context, issuerID int64, m catalog.RulerMatch) (claimed, released int64, err error) {
	clause, args := matchClause(m)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		claimArgs := append([]any{issuerID, issuerID}, args...)
		res, err := tx.ExecContext(ctx, `UPDATE issuers_rulers_rel SET issuer_id = ?
            WHERE (issuer_id IS NULL OR issuer_id = ?) AND is_manual = 0 AND `+clause, claimArgs...)
		if err != nil {
			return fmt.Errorf("claim rulers: %w", err)
		}
		if claimed, err = res.RowsAffected(); err != nil {
			return err
		}

		releaseArgs := append([]any{issuerID}, args...)
		res, err = tx.ExecContext(ctx, `UPDATE issuers_rulers_rel SET issuer_id = NULL
            WHERE issuer_id = ? AND is_manual = 0 AND NOT `+clause, releaseArgs...)
		if err != nil {
			return fmt.Errorf("release rulers: %w", err)
		}
		released, err = res.RowsAffected()
		return err
	})
	return claimed, released, err
}

// RulersForIssuer lists rows assigned to issuerID plus unassigned rows that
// match m, ordered by period and subperiod.
func (s *Store) RulersForIssuer(ctx context.Context, issuerID int64, m catalog.RulerMatch) ([]catalog.Ruler, error) {
	clause, args := matchClause(m)
	query := `SELECT ` + rulerColumns + ` FROM issuers_rulers_rel
        WHERE issuer_id = ? OR (` + clause + ` AND issuer_id IS NULL)
        ORDER BY period_order, subperiod_order, id`
	rows, err := s.db.QueryContext(ensureContext(ctx), query, append([]any{issuerID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query rulers: %w", err)
	}
	defer rows.Close()

	var rulers []catalog.Ruler
	for rows.Next() {
		r, err := scanRuler(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ruler: %w", err)
		}
		rulers = append(rulers, r)
	}
	return rulers, rows.Err()
}

// Ruler fetches one ruler row, or nil when it does not exist.
func (s *Store) Ruler(ctx context.Context, rowID int64) (*catalog.Ruler, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+rulerColumns+` FROM issuers_rulers_rel WHERE id = ?`, rowID)
	r, err := scanRuler(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ruler: %w", err)
	}
	return &r, nil
}

// RulerInfo returns the name and years of a ruler associated with issuerID.
func (s *Store) RulerInfo(ctx context.Context, issuerID, rulerID int64) (name, years string, found bool, err error) {
	var yearsText sql.NullString
	err = s.db.QueryRowContext(ensureContext(ctx), `SELECT name, years_text FROM issuers_rulers_rel
        WHERE issuer_id = ? AND ruler_id = ? LIMIT 1`, issuerID, rulerID).Scan(&name, &yearsText)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("get ruler info: %w", err)
	}
	return name, yearsText.String, true, nil
}

// SetRulerAssociation binds a row to issuerID (nil dissociates) and marks it
// manual so the resolver leaves it alone.
func (s *Store) SetRulerAssociation(ctx context.Context, rowID int64, issuerID *int64) error {
	res, err := s.execWithRetry(ctx, `UPDATE issuers_rulers_rel SET issuer_id = ?, is_manual = 1 WHERE id = ?`,
		nullableInt64(issuerID), rowID)
	if err != nil {
		return fmt.Errorf("set ruler association: %w", err)
	}
	return expectRows(res, 1, "ruler")
}

// SetPeriodAssociation associates every row of (period, periodOrder) with
// issuerID, or dissociates the rows currently bound to it. Touched rows become
// manual.
func (s *Store) SetPeriodAssociation(ctx context.Context, issuerID int64, period string, periodOrder int, associate bool) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if associate {
		res, err = s.execWithRetry(ctx, `UPDATE issuers_rulers_rel SET issuer_id = ?, is_manual = 1
            WHERE period = ? AND period_order = ?`, issuerID, period, periodOrder)
	} else {
		res, err = s.execWithRetry(ctx, `UPDATE issuers_rulers_rel SET issuer_id = NULL, is_manual = 1
            WHERE period = ? AND period_order = ? AND issuer_id = ?`, period, periodOrder, issuerID)
	}
	if err != nil {
		return 0, fmt.Errorf("set period association: %w", err)
	}
	return res.RowsAffected()
}
