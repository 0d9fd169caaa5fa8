package rulers_test

import (
	"context"
	"errors"
	"testing"

	"mintada/internal/catalog"
	"mintada/internal/logging"
	"mintada/internal/rulers"
	"mintada/internal/services"
	"mintada/internal/store"
	"mintada/internal/testsupport"
)

func newResolver(t *testing.T) (*rulers.Resolver, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return rulers.NewResolver(st, logging.NewNop()), st
}

func owner(t *testing.T, st *store.Store, rowID int64) *int64 {
	t.Helper()
	r, err := st.Ruler(context.Background(), rowID)
	if err != nil || r == nil {
		t.Fatalf("load ruler %d: %v", rowID, err)
	}
	return r.IssuerID
}

func TestPredicateDependsOnTerritoryAndHomonyms(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Urbino", Slug: "urbino-duchy", TerritoryType: "Duchy"})
	testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Urbino", Slug: "urbino-city", TerritoryType: "City"})
	testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Lucca", Slug: "lucca", TerritoryType: "Republic"})

	tests := []struct {
		name     string
		issuer   catalog.Issuer
		simple   bool
		combined bool
		ok       bool
	}{
		{"no territory", catalog.Issuer{Name: "Siena"}, true, false, true},
		{"unique with territory", catalog.Issuer{Name: "Lucca", TerritoryType: "Republic"}, true, true, true},
		{"homonym leaves", catalog.Issuer{Name: "Urbino", TerritoryType: "Duchy"}, false, true, true},
		{"shadowed section", catalog.Issuer{Name: "Lucca", IsSection: true}, false, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, ok, err := resolver.Predicate(ctx, tc.issuer)
			if err != nil {
				t.Fatalf("Predicate: %v", err)
			}
			if ok != tc.ok || m.AllowSimple != tc.simple || m.AllowCombined != tc.combined {
				t.Fatalf("unexpected predicate %+v ok=%v", m, ok)
			}
		})
	}
}

func TestResolveDisambiguatesHomonymIssuers(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	duchy := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Urbino", Slug: "urbino-duchy", TerritoryType: "Duchy"})
	city := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Urbino", Slug: "urbino-city", TerritoryType: "City"})

	bare := testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 1, Name: "Guidobaldo", IssuerLabel: "Urbino"})
	cityRow := testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 2, Name: "Francesco Maria", IssuerLabel: "Urbino, City of - Duke"})

	for _, id := range []int64{duchy, city, duchy} {
		if _, err := resolver.Resolve(ctx, id); err != nil {
			t.Fatalf("Resolve(%d): %v", id, err)
		}
	}
	if got := owner(t, st, bare); got != nil {
		t.Fatalf("bare label should stay unclaimed, got issuer %d", *got)
	}
	if got := owner(t, st, cityRow); got == nil || *got != city {
		t.Fatalf("combined label should belong to the city issuer, got %v", got)
	}

	again, err := resolver.Resolve(ctx, city)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if again.Released != 0 {
		t.Fatalf("repeat resolve should not release rows, got %d", again.Released)
	}
}

func TestSimpleLabelMustMatchExactly(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	issuer := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Urbino", Slug: "urbino"})
	exact := testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 1, Name: "Guidobaldo", IssuerLabel: "Urbino"})
	upper := testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 2, Name: "Oddantonio", IssuerLabel: "URBINO"})

	outcome, err := resolver.Resolve(ctx, issuer)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome.Claimed != 1 {
		t.Fatalf("expected one claimed row, got %d", outcome.Claimed)
	}
	if got := owner(t, st, exact); got == nil || *got != issuer {
		t.Fatalf("exact label should be claimed, got %v", got)
	}
	if got := owner(t, st, upper); got != nil {
		t.Fatalf("differently cased label claimed by issuer %d", *got)
	}
}

func TestManualToggleSurvivesResolve(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	issuer := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Mantua", Slug: "mantua"})
	matched := testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 1, Name: "Ludovico", IssuerLabel: "Mantua"})
	foreign := testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 2, Name: "Cosimo", IssuerLabel: "Florence"})

	if _, err := resolver.Resolve(ctx, issuer); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := owner(t, st, matched); got == nil || *got != issuer {
		t.Fatalf("expected heuristic claim, got %v", got)
	}

	row, err := resolver.Toggle(ctx, issuer, matched)
	if err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	if row.IssuerID != nil || !row.IsManual {
		t.Fatalf("expected manual dissociation, got %+v", row)
	}
	if _, err := resolver.Toggle(ctx, issuer, foreign); err != nil {
		t.Fatalf("Toggle on: %v", err)
	}

	if _, err := resolver.Resolve(ctx, issuer); err != nil {
		t.Fatalf("Resolve after toggles: %v", err)
	}
	if got := owner(t, st, matched); got != nil {
		t.Fatalf("manual dissociation overridden, owner %d", *got)
	}
	if got := owner(t, st, foreign); got == nil || *got != issuer {
		t.Fatalf("manual association overridden, owner %v", got)
	}

	if _, err := resolver.Toggle(ctx, issuer, 999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for unknown row, got %v", err)
	}
}

func TestSectionShadowedByLeafIsSkipped(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	section := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Milan", Slug: "milan-section", IsSection: true})
	leaf := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Milan", Slug: "milan", ParentSlug: "milan-section"})
	row := testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 1, Name: "Gian Galeazzo", IssuerLabel: "Milan"})

	outcome, err := resolver.Resolve(ctx, section)
	if err != nil {
		t.Fatalf("Resolve section: %v", err)
	}
	if !outcome.Skipped || owner(t, st, row) != nil {
		t.Fatalf("section should not claim rows: %+v", outcome)
	}
	if _, err := resolver.Resolve(ctx, leaf); err != nil {
		t.Fatalf("Resolve leaf: %v", err)
	}
	if got := owner(t, st, row); got == nil || *got != leaf {
		t.Fatalf("leaf should own the row, got %v", got)
	}
}

func TestListAndTogglePeriod(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	issuer := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Ferrara", Slug: "ferrara"})
	testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 1, Name: "Ercole I", IssuerLabel: "Ferrara", Period: "Duchy", PeriodOrder: 2})
	testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 2, Name: "Alfonso I", IssuerLabel: "Ferrara", Period: "Duchy", PeriodOrder: 2, SubperiodOrder: 1})
	testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 3, Name: "Obizzo", IssuerLabel: "Ferrara", Period: "Marquisate", PeriodOrder: 1})
	testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 4, Name: "Borso", IssuerLabel: "Ferrara"})

	listing, err := resolver.List(ctx, issuer)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listing.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(listing.Groups))
	}
	if listing.Groups[0].Period != "Marquisate" || listing.Groups[2].Period != "" {
		t.Fatalf("unexpected group order: %+v", listing.Groups)
	}
	if !listing.Groups[1].IsAssociated || listing.Outcome.Claimed != 4 {
		t.Fatalf("expected every row claimed, outcome %+v", listing.Outcome)
	}

	associated, n, err := resolver.TogglePeriod(ctx, issuer, "Duchy", 2)
	if err != nil {
		t.Fatalf("TogglePeriod: %v", err)
	}
	if associated || n != 2 {
		t.Fatalf("expected the duchy rows dissociated, got associated=%v n=%d", associated, n)
	}

	listing, err = resolver.List(ctx, issuer)
	if err != nil {
		t.Fatalf("List after toggle: %v", err)
	}
	for _, g := range listing.Groups {
		if g.Period == "Duchy" && (g.IsAssociated || g.IsPartiallyAssociated) {
			t.Fatalf("manual dissociation lost after resolve: %+v", g)
		}
	}

	if _, _, err := resolver.TogglePeriod(ctx, issuer, "Republic", 9); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for unknown period, got %v", err)
	}
}

func TestPreviewDoesNotWrite(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	issuer := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Genoa", Slug: "genoa"})
	row := testsupport.MustInsertRuler(t, st, catalog.Ruler{RulerID: 1, Name: "Doge", IssuerLabel: "Genoa"})

	preview, _, err := resolver.Preview(ctx, issuer)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(preview) != 1 || !preview[0].WouldClaim {
		t.Fatalf("expected one claimable row, got %+v", preview)
	}
	if owner(t, st, row) != nil {
		t.Fatal("preview must not associate rows")
	}
}
