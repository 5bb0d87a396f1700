// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/corpus"
)

// Snapshot blob layout, all fields MUS encoded in order:
//
//	version, fingerprint, build id, model, dimension, built-at (unix micro),
//	entity count, {id, name, description, status}...,
//	unit count, {entity id, ordinal, text, vector[dimension]}...

// MarshalSnapshot serializes a snapshot to a versioned blob.
func MarshalSnapshot(snapshot *corpus.Snapshot) ([]byte, error) {
	if len(snapshot.Units) != len(snapshot.Vectors) {
		return nil, fmt.Errorf("%w: %d units but %d vectors",
			ErrSerializationFailed, len(snapshot.Units), len(snapshot.Vectors))
	}
	for i, v := range snapshot.Vectors {
		if len(v) != snapshot.Dimension {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrSerializationFailed, i, len(v), snapshot.Dimension)
		}
	}

	sizer := &writer{}
	writeSnapshot(sizer, snapshot)

	w := &writer{bs: make([]byte, sizer.n)}
	writeSnapshot(w, snapshot)
	return w.bs[:w.n], nil
}

// UnmarshalSnapshot deserializes a blob produced by MarshalSnapshot.
// Blobs of another format version return ErrUnsupportedVersion.
func UnmarshalSnapshot(data []byte) (*corpus.Snapshot, error) {
	r := &reader{bs: data}

	version := r.int()
	if r.err != nil {
		return nil, r.err
	}
	if version != corpus.FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	s := &corpus.Snapshot{FormatVersion: version}
	s.Fingerprint = r.string()
	s.BuildID = r.string()
	s.Model = r.string()
	s.Dimension = r.int()
	s.BuiltAt = time.UnixMicro(r.int64()).UTC()

	numEntities := r.count(3)
	s.Entities = make([]core.Entity, 0, numEntities)
	s.Statuses = make(map[string]core.EntityStatus, numEntities)
	for i := 0; i < numEntities && r.err == nil; i++ {
		e := core.Entity{ID: r.string(), Name: r.string(), Description: r.string()}
		s.Entities = append(s.Entities, e)
		s.Statuses[e.ID] = core.EntityStatus(r.int())
	}

	if s.Dimension < 0 {
		r.fail(fmt.Errorf("%w: negative dimension %d", ErrSerializationFailed, s.Dimension))
	}
	numUnits := r.count(3 + 4*max(s.Dimension, 0))
	s.Units = make([]core.TextUnit, 0, numUnits)
	s.Vectors = make([]core.Vector, 0, numUnits)
	for i := 0; i < numUnits && r.err == nil; i++ {
		entityID := r.string()
		ordinal := r.int()
		unit := core.TextUnit{
			ID:         core.UnitID(entityID, ordinal),
			EntityID:   entityID,
			Ordinal:    ordinal,
			Text:       r.string(),
			Functional: true,
		}
		vector := make(core.Vector, s.Dimension)
		for j := range vector {
			vector[j] = r.float32()
		}
		s.Units = append(s.Units, unit)
		s.Vectors = append(s.Vectors, vector)
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-r.n)
	}
	return s, nil
}

func writeSnapshot(w *writer, s *corpus.Snapshot) {
	w.int(corpus.FormatVersion)
	w.string(s.Fingerprint)
	w.string(s.BuildID)
	w.string(s.Model)
	w.int(s.Dimension)
	w.int64(s.BuiltAt.UnixMicro())

	w.int(len(s.Entities))
	for _, e := range s.Entities {
		w.string(e.ID)
		w.string(e.Name)
		w.string(e.Description)
		w.int(int(s.Statuses[e.ID]))
	}

	w.int(len(s.Units))
	for i, u := range s.Units {
		w.string(u.EntityID)
		w.int(u.Ordinal)
		w.string(u.Text)
		for _, f := range s.Vectors[i] {
			w.float32(f)
		}
	}
}

// writer sizes the output when bs is nil and marshals into bs otherwise.
type writer struct {
	bs []byte
	n  int
}

func (w *writer) int(v int) {
	if w.bs == nil {
		w.n += varint.Int.Size(v)
		return
	}
	w.n += varint.Int.Marshal(v, w.bs[w.n:])
}

func (w *writer) int64(v int64) {
	if w.bs == nil {
		w.n += varint.Int64.Size(v)
		return
	}
	w.n += varint.Int64.Marshal(v, w.bs[w.n:])
}

func (w *writer) string(v string) {
	if w.bs == nil {
		w.n += ord.String.Size(v)
		return
	}
	w.n += ord.String.Marshal(v, w.bs[w.n:])
}

func (w *writer) float32(v float32) {
	if w.bs == nil {
		w.n += raw.Float32.Size(v)
		return
	}
	w.n += raw.Float32.Marshal(v, w.bs[w.n:])
}

// reader records the first error and turns later reads into no-ops.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) wrap(err error) {
	r.fail(fmt.Errorf("%w at offset %d: %w", ErrTruncatedData, r.n, err))
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.wrap(err)
	}
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.wrap(err)
	}
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.wrap(err)
	}
	return v
}

func (r *reader) float32() float32 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.wrap(err)
	}
	return v
}

// count reads a collection length and rejects values that cannot fit in
// the remaining bytes, given the minimum encoded size of one element.
func (r *reader) count(minElemSize int) int {
	c := r.int()
	if r.err != nil {
		return 0
	}
	if c < 0 || c > (len(r.bs)-r.n)/max(minElemSize, 1) {
		r.fail(fmt.Errorf("%w: collection length %d exceeds remaining %d bytes",
			ErrTruncatedData, c, len(r.bs)-r.n))
		return 0
	}
	return c
}
