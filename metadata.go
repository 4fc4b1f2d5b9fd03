package gridview

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type MetaType string

const (
	// MTAttributes stores userland metadata keyed by array name
	MTAttributes MetaType = ".zattrs"
	// MTArray is the key for storing metadata on an array store
	MTArray MetaType = ".zarray"
	// MTGroup is the key for storing group definitions on an array store
	MTGroup MetaType = ".zgroup"
	// MTMetadata is the key for composite metadata
	MTMetadata MetaType = ".zmetadata"
)

type MetaTyper interface {
	MetaType() MetaType
}

var metaTypes = map[MetaType]struct{}{
	MTAttributes: {},
	MTArray:      {},
	MTGroup:      {},
}

// relies on the fact that all keynames are 7 characters long
func KeyMetaType(s string) (mt MetaType, ok bool) {
	if len(s) < 7 {
		return mt, false
	}
	mt = MetaType(s[len(s)-7:])
	_, ok = metaTypes[mt]
	return mt, ok
}

type Attributes map[string]interface{}

func (Attributes) MetaType() MetaType { return MTAttributes }

// Uint64 reads an unsigned attribute stored as a decimal string. JSON
// numbers cannot carry every 64-bit flag mask.
func (a Attributes) Uint64(key string) (uint64, bool) {
	s, ok := a[key].(string)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

// ConsolidatedMetadata gathers the metadata of every array below a group
// under one key, so a group can be opened with a single read.
type ConsolidatedMetadata struct {
	ConsolidatedFormat int                  `json:"zarr_consolidated_format"`
	Metadata           map[string]MetaTyper `json:"metadata"`
}

func (ConsolidatedMetadata) MetaType() MetaType { return MTMetadata }

type consolidatedMetaDecoder struct {
	ConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata           map[string]json.RawMessage `json:"metadata"`
}

func (m *ConsolidatedMetadata) UnmarshalJSON(d []byte) error {
	cd := consolidatedMetaDecoder{}
	if err := json.Unmarshal(d, &cd); err != nil {
		return err
	}
	cm := ConsolidatedMetadata{
		ConsolidatedFormat: cd.ConsolidatedFormat,
		Metadata:           map[string]MetaTyper{},
	}

	for key, data := range cd.Metadata {
		kt, ok := KeyMetaType(key)
		if !ok {
			return fmt.Errorf("invalid consoldated metadata key: %q", key)
		}

		switch kt {
		case MTArray:
			arr := &ArrayMeta{}
			if err := json.Unmarshal(data, arr); err != nil {
				return fmt.Errorf("reading %q metadata: %w", key, err)
			}
			cm.Metadata[key] = arr
		case MTAttributes:
			attr := Attributes{}
			if err := json.Unmarshal(data, &attr); err != nil {
				return fmt.Errorf("reading %q attributes: %w", key, err)
			}
			cm.Metadata[key] = attr
		case MTGroup:
			grp := &Group{}
			if err := json.Unmarshal(data, grp); err != nil {
				return fmt.Errorf("reading %q group: %w", key, err)
			}
			cm.Metadata[key] = grp
		}
	}

	*m = cm
	return nil
}

// ArrayMeta is the configuration stored under ".zarray" for each archived
// grid, enabling correct interpretation of its chunks.
type ArrayMeta struct {
	// Version of the storage format the array adheres to.
	ZarrFormat int `json:"zarr_format"`
	// [SizeX, SizeY] of the grid.
	Shape []int `json:"shape"`
	// Shape of one chunk: [rows per chunk, SizeY].
	Chunks [2]int `json:"chunks"`
	// Element type of the grid.
	Dtype Dtype `json:"dtype"`
	// Chunk compression, or null if chunks are stored raw.
	Compressor *CompressionMeta `json:"compressor"`
	// Value stored for invalid cells: a number, "NaN", "Infinity" or
	// "-Infinity".
	FillValue interface{} `json:"fill_value"`
	// Either "C" or "F"; grids are always written row-major, "C".
	Order string `json:"order"`
	// Codec configurations; grids do not use filters.
	Filters []Filter `json:"filters"`

	// Separator between chunk indices in chunk keys, "." if unset.
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

func (a ArrayMeta) MetaType() MetaType { return MTArray }

// Fill returns the fill value as a float64.
func (a *ArrayMeta) Fill() (float64, error) {
	switch v := a.FillValue.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case string:
		switch v {
		case FillValueNaN:
			return math.NaN(), nil
		case FillValueInfinity:
			return math.Inf(1), nil
		case FillValueNegativeInfinity:
			return math.Inf(-1), nil
		}
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("unexpected fill value type %T", a.FillValue)
}

// fillValue encodes v the way ArrayMeta.FillValue stores it.
func fillValue(v float64) interface{} {
	switch {
	case math.IsNaN(v):
		return FillValueNaN
	case math.IsInf(v, 1):
		return FillValueInfinity
	case math.IsInf(v, -1):
		return FillValueNegativeInfinity
	}
	return v
}

func (a *ArrayMeta) separator() string {
	if a.DimensionSeparator == "" {
		return "."
	}
	return a.DimensionSeparator
}

type Filter struct {
	ID     string `json:"ID"`
	Delta  string `json:"Delta"`
	Dtype  string `json:"Dtype"`
	AsType string `json:"AsType"`
}

const (
	// Not a Number
	FillValueNaN = "NaN"
	// Infinity
	FillValueInfinity = "Infinity"
	// -Infinity
	FillValueNegativeInfinity = "-Infinity"
)
