// Package rulers associates ruler rows with issuers: a heuristic resolver
// over the free-text issuer label of each row, plus manual toggles that pin a
// row or a whole period group and exempt it from later heuristic runs.
package rulers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mintada/internal/catalog"
	"mintada/internal/logging"
	"mintada/internal/services"
)

// Store is the persistence the resolver needs. *store.Store implements it.
type Store interface {
	Issuer(ctx context.Context, id int64) (*catalog.Issuer, error)
	CountLeafIssuersNamed(ctx context.Context, name string) (int, error)
	ApplyRulerMatch(ctx context.Context, issuerID int64, m catalog.RulerMatch) (claimed, released int64, err error)
	RulersForIssuer(ctx context.Context, issuerID int64, m catalog.RulerMatch) ([]catalog.Ruler, error)
	Ruler(ctx context.Context, rowID int64) (*catalog.Ruler, error)
	SetRulerAssociation(ctx context.Context, rowID int64, issuerID *int64) error
	SetPeriodAssociation(ctx context.Context, issuerID int64, period string, periodOrder int, associate bool) (int64, error)
}

// Resolver runs the association heuristic and manual toggles.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(store Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logging.NewComponentLogger(logger, "rulers")}
}

// Outcome summarizes one resolver run.
type Outcome struct {
	Match    catalog.RulerMatch
	Claimed  int64
	Released int64
	// Skipped is set for a section shadowed by a leaf issuer of the same name.
	Skipped bool
}

// Predicate derives the candidacy predicate for issuer. It returns false when
// the issuer is a section and a leaf issuer carries the same name, in which
// case the leaf owns the matching rows.
func (r *Resolver) Predicate(ctx context.Context, issuer catalog.Issuer) (catalog.RulerMatch, bool, error) {
	name := strings.TrimSpace(issuer.Name)
	territory := strings.TrimSpace(issuer.TerritoryType)
	leaves, err := r.store.CountLeafIssuersNamed(ctx, name)
	if err != nil {
		return catalog.RulerMatch{}, false, err
	}
	if issuer.IsSection && leaves > 0 {
		return catalog.RulerMatch{}, false, nil
	}

	m := catalog.RulerMatch{Name: name, Territory: territory}
	switch {
	case territory == "":
		m.AllowSimple = true
	case leaves > 1:
		m.AllowCombined = true
	default:
		m.AllowSimple = true
		m.AllowCombined = true
	}
	return m, true, nil
}

// Resolve claims and releases non-manual rows for issuerID. It is idempotent.
func (r *Resolver) Resolve(ctx context.Context, issuerID int64) (Outcome, error) {
	ctx = services.WithIssuerID(ctx, issuerID)
	logger := logging.WithContext(ctx, r.logger)

	issuer, err := r.issuer(ctx, issuerID)
	if err != nil {
		return Outcome{}, err
	}
	m, ok, err := r.Predicate(ctx, *issuer)
	if err != nil {
		return Outcome{}, fmt.Errorf("derive ruler predicate: %w", err)
	}
	if !ok {
		logger.Debug("section shadowed by leaf issuer; resolver skipped", logging.String("name", issuer.Name))
		return Outcome{Skipped: true}, nil
	}

	claimed, released, err := r.store.ApplyRulerMatch(ctx, issuerID, m)
	if err != nil {
		return Outcome{}, fmt.Errorf("apply ruler match: %w", err)
	}
	logger.Debug("rulers resolved",
		logging.String("name", m.Name),
		logging.String("territory", m.Territory),
		logging.Bool("allow_simple", m.AllowSimple),
		logging.Bool("allow_combined", m.AllowCombined),
		logging.Int64("claimed", claimed),
		logging.Int64("released", released))
	return Outcome{Match: m, Claimed: claimed, Released: released}, nil
}

func (r *Resolver) issuer(ctx context.Context, issuerID int64) (*catalog.Issuer, error) {
	issuer, err := r.store.Issuer(ctx, issuerID)
	if err != nil {
		return nil, fmt.Errorf("load issuer %d: %w", issuerID, err)
	}
	if issuer == nil {
		return nil, services.Wrap(services.ErrNotFound, "rulers", "resolve", fmt.Sprintf("issuer %d", issuerID), nil)
	}
	return issuer, nil
}
