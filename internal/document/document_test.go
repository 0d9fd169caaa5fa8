package document_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mintada/internal/document"
)

const salesPage = `<html><body>
<table class="sales">
<tbody><tr><td><a href="images/sale1.jpg"><img src="images/sale1.jpg"></a></td></tr></tbody>
<tbody><tr><td><a href="images/Sale2.JPG"><img src="images/Sale2.JPG"></a></td></tr></tbody>
</table>
</body></html>`

func TestReplaceSplitImage(t *testing.T) {
	page := `<div id="fiche_photo"><a class="coin_pic" href="images/combo.jpg" target="_blank">
<img alt="x" src="images/combo.jpg"/></a></div>`
	out, changed := document.ReplaceSplitImage(page, "combo.jpg", "o1.jpg", "r1.jpg", `Grosso "A"`)
	if !changed {
		t.Fatal("expected a change")
	}
	for _, want := range []string{
		`href="images/o1.jpg"`,
		`src="images/r1.jpg"`,
		`alt="Grosso &#34;A&#34; - obverse"`,
		`alt="Grosso &#34;A&#34; - reverse"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "combo.jpg") {
		t.Fatalf("combined image still referenced:\n%s", out)
	}

	if _, changed := document.ReplaceSplitImage(page, "other.jpg", "a", "b", "t"); changed {
		t.Fatal("expected no change for unknown image")
	}
}

func TestRemoveSaleTableBodyIsCaseInsensitive(t *testing.T) {
	out, changed := document.RemoveSaleTableBody(salesPage, "sale2.jpg")
	if !changed {
		t.Fatal("expected tbody removal")
	}
	if strings.Contains(out, "Sale2.JPG") || !strings.Contains(out, "sale1.jpg") {
		t.Fatalf("wrong tbody removed:\n%s", out)
	}
	if strings.Count(out, "<tbody>") != 1 {
		t.Fatalf("expected one tbody left:\n%s", out)
	}
}

func TestRemoveEnclosingIgnoresClosedElements(t *testing.T) {
	page := `<div id="fiche_photo"><img src="images/lot.jpg"></div>` +
		`<table><tbody><tr><td>first</td></tr></tbody></table>` +
		`<table><tr><td><img src="images/lot.jpg"></td></tr><tr><td>kept</td></tr></table>` +
		`<table><tbody><tr><td>last</td></tr></tbody></table>`

	if out, changed := document.RemoveSaleTableBody(page, "lot.jpg"); changed {
		t.Fatalf("tbody removal should not reach across tables:\n%s", out)
	}

	out, changed := document.RemoveImageRow(page, "lot.jpg")
	if !changed {
		t.Fatal("expected the enclosing row to be removed")
	}
	want := `<div id="fiche_photo"><img src="images/lot.jpg"></div>` +
		`<table><tbody><tr><td>first</td></tr></tbody></table>` +
		`<table><tr><td>kept</td></tr></table>` +
		`<table><tbody><tr><td>last</td></tr></tbody></table>`
	if out != want {
		t.Fatalf("unexpected result:\n%s", out)
	}
}

func TestRemoveImageRowSkipsSimilarTags(t *testing.T) {
	page := `<table><tr><td><video><track src="x.vtt"></video><img src="images/a.jpg"></td></tr></table>`
	out, changed := document.RemoveImageRow(page, "a.jpg")
	if !changed || out != `<table></table>` {
		t.Fatalf("unexpected result %v %q", changed, out)
	}
}

func TestRemoveImageRow(t *testing.T) {
	page := `<table><tr><td>keep</td></tr><tr><td><img src="images/gone.jpg"></td></tr></table>`
	out, changed := document.RemoveImageRow(page, "gone.jpg")
	if !changed || out != `<table><tr><td>keep</td></tr></table>` {
		t.Fatalf("unexpected result %v %q", changed, out)
	}
	if _, changed := document.RemoveImageRow(page, "absent.jpg"); changed {
		t.Fatal("expected no change")
	}
}

func TestReplaceImageReferenceOnlyTouchesAttributes(t *testing.T) {
	page := `<p>a.jpg is mentioned in text</p><a href="images/A.JPG"><img src='images/a.jpg'></a><img src="images/ba.jpg">`
	out, changed := document.ReplaceImageReference(page, "a.jpg", "b.jpg")
	if !changed {
		t.Fatal("expected a change")
	}
	want := `<p>a.jpg is mentioned in text</p><a href="images/b.jpg"><img src='images/b.jpg'></a><img src="images/ba.jpg">`
	if out != want {
		t.Fatalf("unexpected output\n got %s\nwant %s", out, want)
	}
}

func TestSwapImageReferences(t *testing.T) {
	page := `<a href="images/o.jpg"><img src="images/o.jpg"></a><a href="images/r.jpg"><img src="images/r.jpg"></a>`
	out, changed := document.SwapImageReferences(page, "o.jpg", "r.jpg")
	want := `<a href="images/r.jpg"><img src="images/r.jpg"></a><a href="images/o.jpg"><img src="images/o.jpg"></a>`
	if !changed || out != want {
		t.Fatalf("unexpected swap %v\n%s", changed, out)
	}
}

func TestPromoteCreatesExamplesSectionBeforePastSales(t *testing.T) {
	page := `<html><body>
<div id="fiche_photo"><a href="images/ref_o.jpg"><img src="images/ref_o.jpg"></a><a href="images/ref_r.jpg"><img src="images/ref_r.jpg"></a></div>
<section id="fiche_descriptions"><h3>Description</h3></section>
<section><h3>Past sales</h3><table></table></section>
</body></html>`

	out, err := document.Promote(page,
		document.Faces{Obverse: "new_o.jpg", Reverse: "new_r.jpg"},
		&document.Faces{Obverse: "ref_o.jpg", Reverse: "ref_r.jpg"})
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}

	photo := out[strings.Index(out, `id="fiche_photo"`):strings.Index(out, `id="fiche_descriptions"`)]
	if !strings.Contains(photo, `href="images/new_o.jpg"`) || !strings.Contains(photo, `src="images/new_r.jpg"`) {
		t.Fatalf("main photo not updated:\n%s", photo)
	}

	examples := strings.Index(out, "Examples of the type")
	sales := strings.Index(out, "Past sales")
	if examples < 0 || examples > sales {
		t.Fatalf("examples section missing or misplaced:\n%s", out)
	}
	list := out[examples:sales]
	if !strings.Contains(list, `class="example_image"`) || !strings.Contains(list, `href="images/ref_o.jpg"`) || !strings.Contains(list, `src="images/ref_r.jpg"`) {
		t.Fatalf("demoted sample not listed:\n%s", list)
	}
}

func TestPromoteReusesPromotedExampleEntry(t *testing.T) {
	page := `<html><body>
<div id="fiche_photo"><a href="images/ref_o.jpg"><img src="images/ref_o.jpg"></a></div>
<section><h3>Examples of the type</h3><div id="examples_list">
<div><div class="example_image"><a href="images/sec_o.jpg"><img src="images/sec_o.jpg"></a><a href="images/sec_r.jpg"><img src="images/sec_r.jpg"></a></div></div>
</div></section>
</body></html>`

	out, err := document.Promote(page,
		document.Faces{Obverse: "sec_o.jpg", Reverse: "sec_r.jpg"},
		&document.Faces{Obverse: "ref_o.jpg", Reverse: "ref_r.jpg"})
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if strings.Count(out, `class="example_image"`) != 1 {
		t.Fatalf("expected the existing entry to be reused:\n%s", out)
	}
	list := out[strings.Index(out, "examples_list"):]
	if strings.Contains(list, "sec_o.jpg") || !strings.Contains(list, "ref_r.jpg") {
		t.Fatalf("entry not rewritten to the demoted sample:\n%s", list)
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coin_type.html")
	if err := os.WriteFile(path, []byte(salesPage), 0o644); err != nil {
		t.Fatal(err)
	}

	changed, err := document.ApplyFile(path,
		document.Text(func(doc string) (string, bool) { return document.RemoveSaleTableBody(doc, "sale1.jpg") }),
		document.Text(func(doc string) (string, bool) { return document.ReplaceImageReference(doc, "Sale2.JPG", "kept.jpg") }),
	)
	if err != nil || !changed {
		t.Fatalf("ApplyFile: changed=%v err=%v", changed, err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "sale1.jpg") || !strings.Contains(string(data), "images/kept.jpg") {
		t.Fatalf("unexpected document:\n%s", data)
	}

	_, err = document.ApplyFile(filepath.Join(t.TempDir(), "missing.html"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}
