package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mintada/internal/catalog"
	"mintada/internal/config"
	"mintada/internal/services"
	"mintada/internal/store"
	"mintada/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	configPath string
	layout     catalog.Layout
	issuer     int64
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("MINTADA_CATALOG_DIR", "")
	t.Setenv("MINTADA_DATABASE", "")
	cfg := testsupport.NewConfig(t)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	st := testsupport.MustOpenStore(t, cfg)
	issuer := testsupport.MustInsertIssuer(t, st, catalog.Issuer{Name: "Venice", Slug: "venice", TerritoryType: "Republic"})
	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		configPath: configPath,
		layout:     catalog.Layout{Root: cfg.Paths.CatalogDir},
		issuer:     issuer,
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func (env *cliTestEnv) seedDucat(t *testing.T) *catalog.Coin {
	t.Helper()
	coin := testsupport.SeedCoin(t, env.store, env.issuer, "ducat",
		catalog.Sample{ObverseImage: "ref_o.png", ReverseImage: "ref_r.png", Type: catalog.SampleReference},
		catalog.Sample{ObverseImage: "alt_o.png", ReverseImage: "alt_r.png", Type: catalog.SampleSecondary},
	)
	base := testsupport.BlockImage(8, 3)
	testsupport.WriteImage(t, env.layout.ImagePath(coin, "ref_o.png"), base)
	testsupport.WriteImage(t, env.layout.ImagePath(coin, "ref_r.png"), testsupport.NoiseImage(72, 64, 1))
	testsupport.WriteImage(t, env.layout.ImagePath(coin, "alt_o.png"), testsupport.Stretch(base, 0.6, 10))
	testsupport.WriteImage(t, env.layout.ImagePath(coin, "alt_r.png"), testsupport.NoiseImage(72, 64, 2))
	testsupport.WriteText(t, env.layout.DocumentPath(coin), `<html><body><div id="fiche_photo"><a href="images/ref_o.png"><img src="images/ref_o.png"></a><a href="images/ref_r.png"><img src="images/ref_r.png"></a></div></body></html>`)
	return coin
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite")
	}

	out, _, err = runCLI(t, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.CatalogDir)
}

func TestIssuersAndCoinShow(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.MustInsertIssuer(t, env.store, catalog.Issuer{Name: "Genoa", Slug: "genoa"})
	coin := env.seedDucat(t)

	out, _, err := runCLI(t, env.configPath, "issuers", "--filter", "ven")
	if err != nil {
		t.Fatalf("issuers: %v", err)
	}
	requireContains(t, out, "Venice")
	if strings.Contains(out, "Genoa") {
		t.Fatalf("filter ignored:\n%s", out)
	}

	out, _, err = runCLI(t, env.configPath, "issuers", "--multi-sample")
	if err != nil {
		t.Fatalf("issuers --multi-sample: %v", err)
	}
	if strings.Contains(out, "Genoa") || !strings.Contains(out, "Venice") {
		t.Fatalf("unexpected multi-sample listing:\n%s", out)
	}

	out, _, err = runCLI(t, env.configPath, "coin", "show", "--json", "--analyze", itoa(coin.ID))
	if err != nil {
		t.Fatalf("coin show: %v", err)
	}
	var view coinView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode coin view: %v\n%s", err, out)
	}
	if len(view.Samples) != 2 || view.Samples[0].Type != catalog.SampleReference.String() {
		t.Fatalf("unexpected samples %+v", view.Samples)
	}
	if view.Samples[0].Group == 0 || view.Samples[0].Group != view.Samples[1].Group {
		t.Fatalf("expected near-duplicate samples grouped: %+v", view.Samples)
	}

	if _, _, err := runCLI(t, env.configPath, "coin", "show", "999"); services.ExitCode(err) != 1 {
		t.Fatalf("expected exit 1 for unknown coin, got %v", err)
	}
}

func TestSamplePromoteAndExitCodes(t *testing.T) {
	env := setupCLITestEnv(t)
	coin := env.seedDucat(t)
	var ref, alt catalog.Sample
	for _, s := range coin.Samples {
		if s.Type == catalog.SampleReference {
			ref = s
		} else {
			alt = s
		}
	}

	out, _, err := runCLI(t, env.configPath, "sample", "promote", itoa(coin.ID), itoa(alt.ID))
	if err != nil {
		t.Fatalf("sample promote: %v", err)
	}
	requireContains(t, out, "Promote")
	requireContains(t, testsupport.ReadText(t, env.layout.DocumentPath(coin)), "images/alt_o.png")

	_, _, err = runCLI(t, env.configPath, "sample", "promote", itoa(coin.ID), itoa(alt.ID))
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit 2 for a rejected promotion, got %d (%v)", code, err)
	}
	_, _, err = runCLI(t, env.configPath, "sample", "mark", itoa(coin.ID), itoa(ref.ID), "--as", "sparkly")
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit 2 for an unknown attribute, got %d (%v)", code, err)
	}
	if _, _, err := runCLI(t, env.configPath, "sample", "promote", "x", "1"); services.ExitCode(err) != 2 {
		t.Fatalf("expected exit 2 for a malformed id, got %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "sample", "mark", itoa(coin.ID), itoa(ref.ID), "--as", "holder")
	if err != nil {
		t.Fatalf("sample mark: %v", err)
	}
	requireContains(t, out, "holder")
}

func TestCoinFix(t *testing.T) {
	env := setupCLITestEnv(t)
	coin := env.seedDucat(t)

	if _, _, err := runCLI(t, env.configPath, "coin", "fix", itoa(coin.ID)); err != nil {
		t.Fatalf("coin fix: %v", err)
	}
	reloaded, err := env.store.Coin(context.Background(), coin.ID)
	if err != nil || reloaded == nil || !reloaded.Fixed {
		t.Fatalf("expected coin fixed: %+v %v", reloaded, err)
	}
	if _, _, err := runCLI(t, env.configPath, "coin", "fix", "4242"); err == nil {
		t.Fatal("expected error for unknown coin")
	}
}

func TestRulersListAndToggle(t *testing.T) {
	env := setupCLITestEnv(t)
	row := testsupport.MustInsertRuler(t, env.store, catalog.Ruler{RulerID: 1, Name: "Francesco Foscari", IssuerLabel: "Venice", YearsText: "1423-1457", Period: "Doges", PeriodOrder: 1})

	out, _, err := runCLI(t, env.configPath, "rulers", "list", "--dry-run", itoa(env.issuer))
	if err != nil {
		t.Fatalf("rulers list --dry-run: %v", err)
	}
	requireContains(t, out, "claim")

	out, _, err = runCLI(t, env.configPath, "rulers", "list", itoa(env.issuer))
	if err != nil {
		t.Fatalf("rulers list: %v", err)
	}
	requireContains(t, out, "Claimed 1")
	requireContains(t, out, "Francesco Foscari")

	out, _, err = runCLI(t, env.configPath, "rulers", "toggle", itoa(env.issuer), itoa(row))
	if err != nil {
		t.Fatalf("rulers toggle: %v", err)
	}
	requireContains(t, out, "associated no (manual)")

	out, _, err = runCLI(t, env.configPath, "rulers", "toggle-period", itoa(env.issuer), "--period", "Doges", "--order", "1")
	if err != nil {
		t.Fatalf("rulers toggle-period: %v", err)
	}
	requireContains(t, out, "Associated 1 rulers of Doges")
}

func TestHashAndSplitRatio(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	combo := filepath.Join(dir, "combo.png")
	base := testsupport.BlockImage(8, 11)
	testsupport.WriteImage(t, a, base)
	testsupport.WriteImage(t, b, testsupport.Stretch(base, 0.6, 10))
	testsupport.WriteImage(t, combo, testsupport.BandImage(200, 100, 94, 106, 5))

	out, _, err := runCLI(t, env.configPath, "hash", a, b)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	requireContains(t, out, "72x64")
	// Table headers are rendered upper case.
	requireContains(t, out, "DISTANCE")
	requireContains(t, out, "DUPLICATE")

	out, _, err = runCLI(t, env.configPath, "split-ratio", combo)
	if err != nil {
		t.Fatalf("split-ratio: %v", err)
	}
	if got := strings.TrimSpace(out); got < "0.450" || got > "0.550" {
		t.Fatalf("unexpected ratio %q", got)
	}
}

func TestStatusReportsMissingWorkerAsWarning(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "Catalog directory")
	requireContains(t, out, "Disabled")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
