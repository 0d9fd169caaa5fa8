package testsupport

import (
	"context"
	"testing"

	"mintada/internal/catalog"
	"mintada/internal/config"
	"mintada/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustInsertIssuer stores an issuer and returns its id.
func MustInsertIssuer(t testing.TB, st *store.Store, issuer catalog.Issuer) int64 {
	t.Helper()
	id, err := st.InsertIssuer(context.Background(), issuer)
	if err != nil {
		t.Fatalf("insert issuer %q: %v", issuer.Name, err)
	}
	return id
}

// MustInsertRuler stores a ruler row and returns its row id.
func MustInsertRuler(t testing.TB, st *store.Store, r catalog.Ruler) int64 {
	t.Helper()
	id, err := st.InsertRuler(context.Background(), r)
	if err != nil {
		t.Fatalf("insert ruler %q: %v", r.Name, err)
	}
	return id
}

// SeedCoin inserts a coin type owned by issuerID with the given samples and
// returns it freshly loaded from the store.
func SeedCoin(t testing.TB, st *store.Store, issuerID int64, slug string, samples ...catalog.Sample) *catalog.Coin {
	t.Helper()
	ctx := context.Background()
	coinID, err := st.InsertCoin(ctx, catalog.Coin{IssuerID: issuerID, Title: slug, Slug: slug})
	if err != nil {
		t.Fatalf("insert coin %q: %v", slug, err)
	}
	for _, sample := range samples {
		sample.CoinTypeID = coinID
		if _, err := st.InsertSample(ctx, sample); err != nil {
			t.Fatalf("insert sample %q: %v", sample.ObverseImage, err)
		}
	}
	coin, err := st.Coin(ctx, coinID)
	if err != nil || coin == nil {
		t.Fatalf("reload coin %d: %v", coinID, err)
	}
	return coin
}
