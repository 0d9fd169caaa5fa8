package rulers

import (
	"context"
	"fmt"

	"mintada/internal/catalog"
	"mintada/internal/logging"
	"mintada/internal/services"
)

// Listing is what an issuer's ruler panel shows.
type Listing struct {
	Issuer  catalog.Issuer
	Outcome Outcome
	Groups  []catalog.PeriodGroup
}

// List resolves the issuer and returns its rulers grouped by period: rows
// associated with it plus unassociated rows its predicate matches.
func (r *Resolver) List(ctx context.Context, issuerID int64) (*Listing, error) {
	outcome, err := r.Resolve(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	issuer, err := r.issuer(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	rows, err := r.store.RulersForIssuer(ctx, issuerID, outcome.Match)
	if err != nil {
		return nil, fmt.Errorf("list rulers: %w", err)
	}
	return &Listing{
		Issuer:  *issuer,
		Outcome: outcome,
		Groups:  catalog.GroupByPeriod(rows, issuerID),
	}, nil
}

// PreviewRow is a ruler with the change a resolver run would make to it.
type PreviewRow struct {
	Ruler        catalog.Ruler
	WouldClaim   bool
	WouldRelease bool
}

// Preview reports what Resolve would change without writing anything.
// Only rows the listing would show are considered.
func (r *Resolver) Preview(ctx context.Context, issuerID int64) ([]PreviewRow, catalog.RulerMatch, error) {
	issuer, err := r.issuer(ctx, issuerID)
	if err != nil {
		return nil, catalog.RulerMatch{}, err
	}
	m, ok, err := r.Predicate(ctx, *issuer)
	if err != nil {
		return nil, catalog.RulerMatch{}, err
	}
	rows, err := r.store.RulersForIssuer(ctx, issuerID, m)
	if err != nil {
		return nil, m, fmt.Errorf("list rulers: %w", err)
	}
	out := make([]PreviewRow, 0, len(rows))
	for _, row := range rows {
		p := PreviewRow{Ruler: row}
		if !row.IsManual && ok {
			matches := m.Matches(row.IssuerLabel)
			associated := row.AssociatedWith(issuerID)
			p.WouldClaim = matches && !associated && row.IssuerID == nil
			p.WouldRelease = associated && !matches
		}
		out = append(out, p)
	}
	return out, m, nil
}

// Toggle flips the association of one row between issuerID and nothing and
// pins the row as manual. It returns the row as stored afterwards.
func (r *Resolver) Toggle(ctx context.Context, issuerID, rowID int64) (*catalog.Ruler, error) {
	ctx = services.WithIssuerID(ctx, issuerID)
	if _, err := r.issuer(ctx, issuerID); err != nil {
		return nil, err
	}
	row, err := r.store.Ruler(ctx, rowID)
	if err != nil {
		return nil, fmt.Errorf("load ruler %d: %w", rowID, err)
	}
	if row == nil {
		return nil, services.Wrap(services.ErrNotFound, "rulers", "toggle", fmt.Sprintf("ruler row %d", rowID), nil)
	}

	var target *int64
	if !row.AssociatedWith(issuerID) {
		target = &issuerID
	}
	if err := r.store.SetRulerAssociation(ctx, rowID, target); err != nil {
		return nil, fmt.Errorf("toggle ruler %d: %w", rowID, err)
	}
	logging.WithContext(ctx, r.logger).Info("ruler association toggled",
		logging.Int64("row_id", rowID),
		logging.String("ruler", row.Name),
		logging.Bool("associated", target != nil))
	return r.store.Ruler(ctx, rowID)
}

// TogglePeriod associates every row of the period group with issuerID, or,
// when the group is already fully associated, dissociates the rows bound to
// it. Touched rows become manual. It returns the new state and the number of
// rows changed.
func (r *Resolver) TogglePeriod(ctx context.Context, issuerID int64, period string, periodOrder int) (bool, int64, error) {
	ctx = services.WithIssuerID(ctx, issuerID)
	issuer, err := r.issuer(ctx, issuerID)
	if err != nil {
		return false, 0, err
	}
	m, _, err := r.Predicate(ctx, *issuer)
	if err != nil {
		return false, 0, err
	}
	rows, err := r.store.RulersForIssuer(ctx, issuerID, m)
	if err != nil {
		return false, 0, fmt.Errorf("list rulers: %w", err)
	}

	var group *catalog.PeriodGroup
	groups := catalog.GroupByPeriod(rows, issuerID)
	for i := range groups {
		if groups[i].Period == period && groups[i].PeriodOrder == periodOrder && period != "" {
			group = &groups[i]
			break
		}
	}
	if group == nil {
		return false, 0, services.Wrap(services.ErrNotFound, "rulers", "toggle-period",
			fmt.Sprintf("period %q (order %d) not listed for issuer %d", period, periodOrder, issuerID), nil)
	}

	associate := !group.IsAssociated
	n, err := r.store.SetPeriodAssociation(ctx, issuerID, period, periodOrder, associate)
	if err != nil {
		return false, 0, fmt.Errorf("toggle period: %w", err)
	}
	logging.WithContext(ctx, r.logger).Info("period association toggled",
		logging.String("period", period),
		logging.Int("period_order", periodOrder),
		logging.Bool("associated", associate),
		logging.Int64("rows", n))
	return associate, n, nil
}
