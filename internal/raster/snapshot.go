package raster

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// Snapshots are the interchange format between acquisition tooling and the
// trend pipeline: gob-encoded, gzip-compressed stacks or single layers.

type layerRecord struct {
	Rows, Cols int
	Values     []float64
	Valid      []bool
}

type stackRecord struct {
	Years  []int
	Layers []layerRecord
}

func toRecord(l *Layer) layerRecord {
	return layerRecord{Rows: l.Rows, Cols: l.Cols, Values: l.Values, Valid: l.Valid}
}

func fromRecord(r layerRecord) (*Layer, error) {
	if r.Rows < 0 || r.Cols < 0 || len(r.Values) != r.Rows*r.Cols || len(r.Valid) != r.Rows*r.Cols {
		return nil, fmt.Errorf("corrupt layer record: %dx%d with %d values, %d mask bits",
			r.Rows, r.Cols, len(r.Values), len(r.Valid))
	}
	return &Layer{Rows: r.Rows, Cols: r.Cols, Values: r.Values, Valid: r.Valid}, nil
}

func encodeSnapshot(w io.Writer, v interface{}) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(v); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func decodeSnapshot(r io.Reader, v interface{}) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()
	return gob.NewDecoder(gz).Decode(v)
}

// WriteStackSnapshot serialises a stack to w.
func WriteStackSnapshot(w io.Writer, s *LayerStack) error {
	rec := stackRecord{}
	for _, e := range s.Entries() {
		rec.Years = append(rec.Years, e.Year)
		rec.Layers = append(rec.Layers, toRecord(e.Layer))
	}
	if err := encodeSnapshot(w, rec); err != nil {
		return fmt.Errorf("write stack snapshot: %w", err)
	}
	return nil
}

// ReadStackSnapshot deserialises a stack from r.
func ReadStackSnapshot(r io.Reader) (*LayerStack, error) {
	var rec stackRecord
	if err := decodeSnapshot(r, &rec); err != nil {
		return nil, fmt.Errorf("read stack snapshot: %w", err)
	}
	if len(rec.Years) != len(rec.Layers) {
		return nil, fmt.Errorf("corrupt stack snapshot: %d years, %d layers", len(rec.Years), len(rec.Layers))
	}
	s := NewLayerStack()
	for i, y := range rec.Years {
		l, err := fromRecord(rec.Layers[i])
		if err != nil {
			return nil, fmt.Errorf("read stack snapshot: %w", err)
		}
		if err := s.Append(y, l); err != nil {
			return nil, fmt.Errorf("read stack snapshot: %w", err)
		}
	}
	return s, nil
}

// WriteLayerSnapshot serialises a single layer to w.
func WriteLayerSnapshot(w io.Writer, l *Layer) error {
	if err := encodeSnapshot(w, toRecord(l)); err != nil {
		return fmt.Errorf("write layer snapshot: %w", err)
	}
	return nil
}

// ReadLayerSnapshot deserialises a single layer from r.
func ReadLayerSnapshot(r io.Reader) (*Layer, error) {
	var rec layerRecord
	if err := decodeSnapshot(r, &rec); err != nil {
		return nil, fmt.Errorf("read layer snapshot: %w", err)
	}
	l, err := fromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("read layer snapshot: %w", err)
	}
	return l, nil
}

// LoadStackSnapshot reads a stack snapshot from a file path.
func LoadStackSnapshot(path string) (*LayerStack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stack snapshot: %w", err)
	}
	defer f.Close()
	return ReadStackSnapshot(f)
}

// SaveLayerSnapshot writes a layer snapshot to a file path.
func SaveLayerSnapshot(path string, l *Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create layer snapshot: %w", err)
	}
	if err := WriteLayerSnapshot(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
