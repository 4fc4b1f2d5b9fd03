package gridview

import (
	"encoding/json"
	"math"
	"testing"
)

// https://zarr.readthedocs.io/en/stable/spec/v2.html#metadata
const zarrDocExample = `{
  "chunks": [
    1000,
    1000
  ],
	"compressor": {
			"id": "blosc",
			"cname": "lz4",
			"clevel": 5,
			"shuffle": 1
	},
	"dtype": "<f8",
	"fill_value": "NaN",
	"filters": [
			{"id": "delta", "dtype": "<f8", "astype": "<f4"}
	],
	"order": "C",
	"shape": [
			10000,
			10000
	],
	"zarr_format": 2
}`

func TestMetadataSerialization(t *testing.T) {
	m := &ArrayMeta{}
	err := json.Unmarshal([]byte(zarrDocExample), m)
	if err != nil {
		t.Fatal(err)
	}
	if m.Dtype != Float64 {
		t.Errorf("expected dtype <f8, got %s", m.Dtype)
	}
	if m.Compressor == nil || m.Compressor.ID != "blosc" || m.Compressor.Clevel != 5 {
		t.Errorf("unexpected compressor %#v", m.Compressor)
	}
	fill, err := m.Fill()
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(fill) {
		t.Errorf("expected NaN fill, got %v", fill)
	}
	if m.separator() != "." {
		t.Errorf("expected default separator, got %q", m.separator())
	}
}

func TestFillValue(t *testing.T) {
	tests := []struct {
		fill interface{}
		want float64
	}{
		{nil, 0},
		{float64(-32768), -32768},
		{FillValueInfinity, math.Inf(1)},
		{FillValueNegativeInfinity, math.Inf(-1)},
		{"2.5", 2.5},
	}
	for _, tt := range tests {
		m := &ArrayMeta{FillValue: tt.fill}
		got, err := m.Fill()
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("fill %v: expected %v, got %v", tt.fill, tt.want, got)
		}
	}

	if _, err := (&ArrayMeta{FillValue: true}).Fill(); err == nil {
		t.Error("expected error for boolean fill value")
	}
	if fillValue(math.NaN()) != FillValueNaN {
		t.Error("NaN should encode as \"NaN\"")
	}
}

const consolidatedExample = `{
	"zarr_consolidated_format": 1,
	"metadata": {
		".zgroup": {"zarr_format": 2},
		"data/.zarray": {
			"zarr_format": 2, "shape": [4, 3], "chunks": [2, 3], "dtype": "<i4",
			"compressor": null, "fill_value": -2147483648, "order": "C", "filters": null
		},
		"flags/.zattrs": {"critical_flags": "18446744073709551615"}
	}
}`

func TestConsolidatedMetadata(t *testing.T) {
	cm := &ConsolidatedMetadata{}
	if err := json.Unmarshal([]byte(consolidatedExample), cm); err != nil {
		t.Fatal(err)
	}
	if cm.ConsolidatedFormat != 1 {
		t.Errorf("expected format 1, got %d", cm.ConsolidatedFormat)
	}
	if len(cm.Metadata) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(cm.Metadata))
	}

	am, ok := cm.Metadata["data/.zarray"].(*ArrayMeta)
	if !ok {
		t.Fatalf("expected *ArrayMeta, got %T", cm.Metadata["data/.zarray"])
	}
	if am.Dtype != Int32 || am.Shape[0] != 4 || am.Chunks[0] != 2 || am.Compressor != nil {
		t.Errorf("unexpected array meta %#v", am)
	}
	if _, ok := cm.Metadata[".zgroup"].(*Group); !ok {
		t.Errorf("expected *Group, got %T", cm.Metadata[".zgroup"])
	}
	attrs, ok := cm.Metadata["flags/.zattrs"].(Attributes)
	if !ok {
		t.Fatalf("expected Attributes, got %T", cm.Metadata["flags/.zattrs"])
	}
	if mask, ok := attrs.Uint64("critical_flags"); !ok || mask != AllFlags {
		t.Errorf("expected all-bits mask, got %x (%v)", mask, ok)
	}

	bad := `{"zarr_consolidated_format": 1, "metadata": {"x": {}}}`
	if err := json.Unmarshal([]byte(bad), &ConsolidatedMetadata{}); err == nil {
		t.Error("expected error for invalid key")
	}
}

func TestKeyMetaType(t *testing.T) {
	tests := []struct {
		key string
		mt  MetaType
		ok  bool
	}{
		{"foo/.zarray", MTArray, true},
		{".zgroup", MTGroup, true},
		{"a/b/.zattrs", MTAttributes, true},
		{"0.0", "", false},
		{"foo/bar.json", "", false},
	}
	for _, tt := range tests {
		mt, ok := KeyMetaType(tt.key)
		if ok != tt.ok || (ok && mt != tt.mt) {
			t.Errorf("%q: expected (%q, %v), got (%q, %v)", tt.key, tt.mt, tt.ok, mt, ok)
		}
	}
}
