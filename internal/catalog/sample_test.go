package catalog_test

import (
	"path/filepath"
	"testing"

	"mintada/internal/catalog"
)

func TestSampleIsCombined(t *testing.T) {
	tests := []struct {
		name   string
		sample catalog.Sample
		want   bool
	}{
		{"same name", catalog.Sample{ObverseImage: "a.jpg", ReverseImage: "a.jpg"}, true},
		{"case and spaces", catalog.Sample{ObverseImage: " A.JPG", ReverseImage: "a.jpg "}, true},
		{"distinct", catalog.Sample{ObverseImage: "a.jpg", ReverseImage: "b.jpg"}, false},
		{"obverse only", catalog.Sample{ObverseImage: "a.jpg"}, false},
		{"same path", catalog.Sample{ObverseImage: "a.jpg", ReverseImage: "b.jpg", ObversePath: "/x", ReversePath: "/x"}, true},
	}
	for _, tc := range tests {
		if got := tc.sample.IsCombined(); got != tc.want {
			t.Errorf("%s: IsCombined = %v, want %v", tc.name, got, tc.want)
		}
	}
	if (catalog.Sample{}).Valid() {
		t.Fatal("sample without images must be invalid")
	}
}

func TestTagsForIsMutuallyExclusive(t *testing.T) {
	for _, attr := range catalog.Attributes {
		tags := catalog.TagsFor(attr)
		if tags.Active() != attr {
			t.Fatalf("TagsFor(%s).Active() = %s", attr, tags.Active())
		}
	}
	if catalog.TagsFor(catalog.AttributeNone) != (catalog.Tags{}) {
		t.Fatal("expected empty tags for none")
	}
	attr, err := catalog.ParseAttribute("Contains_Text")
	if err != nil || attr != catalog.AttributeContainsText {
		t.Fatalf("ParseAttribute = %v, %v", attr, err)
	}
	if _, err := catalog.ParseAttribute("shiny"); err == nil {
		t.Fatal("expected error for unknown attribute")
	}
}

func TestCoinSortAndLayout(t *testing.T) {
	coin := &catalog.Coin{
		ID:         17,
		IssuerSlug: "italy",
		Slug:       "grosso",
		Samples: []catalog.Sample{
			{ID: 3, Type: catalog.SampleSecondary, ObverseImage: "c.jpg"},
			{ID: 1, Type: catalog.SamplePastSale, ObverseImage: "a.jpg"},
			{ID: 2, Type: catalog.SampleReference, ObverseImage: "b.jpg", ReverseImage: "b2.jpg"},
		},
	}
	coin.SortSamples()
	if coin.Samples[0].ID != 2 || coin.Samples[1].ID != 1 || coin.Samples[2].ID != 3 {
		t.Fatalf("unexpected order: %+v", coin.Samples)
	}

	layout := catalog.Layout{Root: "/catalog"}
	layout.Resolve(coin)
	want := filepath.Join("/catalog", "italy", "grosso_17", "images", "b2.jpg")
	if coin.Samples[0].ReversePath != want {
		t.Fatalf("ReversePath = %q, want %q", coin.Samples[0].ReversePath, want)
	}
	if layout.DocumentPath(coin) != filepath.Join("/catalog", "italy", "grosso_17", "coin_type.html") {
		t.Fatalf("unexpected document path %q", layout.DocumentPath(coin))
	}
	if coin.Samples[1].ReversePath != "" {
		t.Fatal("expected empty path for missing reverse")
	}
}
