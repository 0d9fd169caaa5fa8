package store_test

import (
	"context"
	"errors"
	"testing"

	"mintada/internal/catalog"
	"mintada/internal/store"
	"mintada/internal/testsupport"
)

func seedIssuer(t *testing.T, st *store.Store) int64 {
	t.Helper()
	return testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Italy", Slug: "italy"})
}

func TestOpenAppliesMigrationsIdempotently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	st.Close()

	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	if reopened.Path() != cfg.Paths.DatabasePath {
		t.Fatalf("unexpected path %q", reopened.Path())
	}
	version, err := reopened.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1 after reopen, got %d", version)
	}
}

func TestCoinLoadsLiveSamplesReferenceFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	issuerID := seedIssuer(t, st)

	coin := testsupport.SeedCoin(t, st, issuerID, "grosso",
		catalog.Sample{ObverseImage: "a.jpg", ReverseImage: "a2.jpg", Type: catalog.SampleSecondary},
		catalog.Sample{ObverseImage: "b.jpg", ReverseImage: "b2.jpg", Type: catalog.SampleReference},
		catalog.Sample{ObverseImage: "c.jpg", Type: catalog.SamplePastSale, Removed: true},
	)
	if coin.IssuerSlug != "italy" || coin.Slug != "grosso" {
		t.Fatalf("unexpected coin identity: %+v", coin)
	}
	if len(coin.Samples) != 2 {
		t.Fatalf("expected removed sample to be hidden, got %d samples", len(coin.Samples))
	}
	if coin.Samples[0].ObverseImage != "b.jpg" {
		t.Fatalf("expected reference first, got %+v", coin.Samples[0])
	}

	missing, err := st.Coin(context.Background(), 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil coin for missing id, got %+v %v", missing, err)
	}
}

func TestCoinSkipsSamplesWithoutImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	issuerID := seedIssuer(t, st)

	coin := testsupport.SeedCoin(t, st, issuerID, "denaro",
		catalog.Sample{ObverseImage: "a.jpg", Type: catalog.SampleReference},
		catalog.Sample{ID: 700, Type: catalog.SampleSecondary},
		catalog.Sample{ReverseImage: "r.jpg", Type: catalog.SamplePastSale},
	)
	if len(coin.Samples) != 2 {
		t.Fatalf("expected 2 samples with images, got %+v", coin.Samples)
	}
	if _, ok := coin.Sample(700); ok {
		t.Fatal("expected imageless sample 700 to be skipped")
	}
}

func TestPromoteSampleKeepsSingleReference(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	coin := testsupport.SeedCoin(t, st, seedIssuer(t, st), "grosso",
		catalog.Sample{ObverseImage: "ref.jpg", Type: catalog.SampleReference},
		catalog.Sample{ObverseImage: "alt.jpg", Type: catalog.SampleSecondary},
	)
	ref, alt := coin.Samples[0], coin.Samples[1]

	demoted, err := st.PromoteSample(ctx, coin.ID, alt.ID)
	if err != nil {
		t.Fatalf("PromoteSample: %v", err)
	}
	if demoted != ref.ID {
		t.Fatalf("expected demoted %d, got %d", ref.ID, demoted)
	}
	reloaded, _ := st.Coin(ctx, coin.ID)
	if reloaded.CountType(catalog.SampleReference) != 1 {
		t.Fatalf("expected exactly one reference")
	}
	if got, _ := reloaded.Reference(); got.ID != alt.ID {
		t.Fatalf("expected %d as reference, got %d", alt.ID, got.ID)
	}

	if _, err := st.InsertSample(ctx, catalog.Sample{CoinTypeID: coin.ID, ObverseImage: "dup.jpg", Type: catalog.SampleReference}); err == nil {
		t.Fatal("expected unique index to reject a second live reference")
	}
}

func TestSwapTransferTagsAndDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	issuerID := seedIssuer(t, st)
	source := testsupport.SeedCoin(t, st, issuerID, "grosso",
		catalog.Sample{ObverseImage: "o.jpg", ReverseImage: "r.jpg", Type: catalog.SamplePastSale},
		catalog.Sample{ObverseImage: "p.jpg", ReverseImage: "q.jpg", Type: catalog.SamplePastSale},
	)
	target := testsupport.SeedCoin(t, st, issuerID, "soldo")
	first, second := source.Samples[0], source.Samples[1]

	if err := st.SwapSampleFaces(ctx, []int64{first.ID}); err != nil {
		t.Fatalf("SwapSampleFaces: %v", err)
	}
	swapped, _ := st.SampleByID(ctx, first.ID)
	if swapped.ObverseImage != "r.jpg" || swapped.ReverseImage != "o.jpg" {
		t.Fatalf("faces not swapped: %+v", swapped)
	}

	if err := st.SetSampleTags(ctx, []int64{first.ID, second.ID}, catalog.TagsFor(catalog.AttributeRoll)); err != nil {
		t.Fatalf("SetSampleTags: %v", err)
	}
	tagged, _ := st.SampleByID(ctx, second.ID)
	if tagged.Tags.Active() != catalog.AttributeRoll {
		t.Fatalf("unexpected tags %+v", tagged.Tags)
	}

	if err := st.TransferSample(ctx, second.ID, target.ID); err != nil {
		t.Fatalf("TransferSample: %v", err)
	}
	moved, _ := st.SampleByID(ctx, second.ID)
	if moved.CoinTypeID != target.ID || moved.Type != catalog.SampleSecondary {
		t.Fatalf("unexpected transferred sample %+v", moved)
	}

	if err := st.SoftDeleteSamples(ctx, []int64{first.ID}); err != nil {
		t.Fatalf("SoftDeleteSamples: %v", err)
	}
	err := st.SoftDeleteSamples(ctx, []int64{first.ID})
	if !errors.Is(err, store.ErrRowsMismatch) {
		t.Fatalf("expected ErrRowsMismatch deleting twice, got %v", err)
	}
}

func TestResolveDuplicatesPromotesSurvivor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	coin := testsupport.SeedCoin(t, st, seedIssuer(t, st), "grosso",
		catalog.Sample{ObverseImage: "small.jpg", Type: catalog.SampleReference},
		catalog.Sample{ObverseImage: "big.jpg", Type: catalog.SampleSecondary},
	)
	loser, survivor := coin.Samples[0], coin.Samples[1]

	if err := st.ResolveDuplicates(ctx, survivor.ID, []int64{loser.ID}, true); err != nil {
		t.Fatalf("ResolveDuplicates: %v", err)
	}
	reloaded, _ := st.Coin(ctx, coin.ID)
	if len(reloaded.Samples) != 1 || reloaded.Samples[0].ID != survivor.ID || reloaded.Samples[0].Type != catalog.SampleReference {
		t.Fatalf("unexpected samples after resolve: %+v", reloaded.Samples)
	}
}

func TestIssuerIDsWithCoinsFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	onlyRef := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "A", Slug: "a"})
	mixed := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "B", Slug: "b"})
	fixed := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "C", Slug: "c"})
	testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Empty", Slug: "empty"})

	testsupport.SeedCoin(t, st, onlyRef, "x", catalog.Sample{ObverseImage: "1.jpg", Type: catalog.SampleReference})
	testsupport.SeedCoin(t, st, mixed, "y",
		catalog.Sample{ObverseImage: "2.jpg", Type: catalog.SampleReference},
		catalog.Sample{ObverseImage: "3.jpg", Type: catalog.SamplePastSale})
	fixedCoin := testsupport.SeedCoin(t, st, fixed, "z", catalog.Sample{ObverseImage: "4.jpg", Type: catalog.SampleSecondary})
	if err := st.SetCoinFixed(ctx, fixedCoin.ID, true); err != nil {
		t.Fatalf("SetCoinFixed: %v", err)
	}

	all, err := st.IssuerIDsWithCoins(ctx, store.CoinFilter{})
	if err != nil {
		t.Fatalf("IssuerIDsWithCoins: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 issuers with coins, got %v", all)
	}

	nonRef, _ := st.IssuerIDsWithCoins(ctx, store.CoinFilter{NonReferenceOnly: true, HideFixed: true})
	if _, ok := nonRef[mixed]; !ok || len(nonRef) != 1 {
		t.Fatalf("expected only mixed issuer, got %v", nonRef)
	}

	onlyFixed, _ := st.IssuerIDsWithCoins(ctx, store.CoinFilter{OnlyFixed: true})
	if _, ok := onlyFixed[fixed]; !ok || len(onlyFixed) != 1 {
		t.Fatalf("expected only fixed issuer, got %v", onlyFixed)
	}
}
