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
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/quarry/core"
)

// encoder writes MUS-encoded fields into a buffer sized in advance.
type encoder struct {
	buf []byte
	n   int
}

func (e *encoder) putUint(v uint64) { e.n += varint.Uint64.Marshal(v, e.buf[e.n:]) }
func (e *encoder) putInt(v int64) { e.n += varint.Int64.Marshal(v, e.buf[e.n:]) }
func (e *encoder) putString(v string) { e.n += ord.String.Marshal(v, e.buf[e.n:]) }
func (e *encoder) putBool(v bool) { e.n += ord.Bool.Marshal(v, e.buf[e.n:]) }

// decoder reads MUS-encoded fields. The first error stops further reads.
type decoder struct {
	buf []byte
	n   int
	err error
}

func (d *decoder) readUint() (v uint64) {
	if d.more() {
		var n int
		v, n, d.err = varint.Uint64.Unmarshal(d.buf[d.n:])
		d.n += n
	}
	return v
}

func (d *decoder) readInt() (v int64) {
	if d.more() {
		var n int
		v, n, d.err = varint.Int64.Unmarshal(d.buf[d.n:])
		d.n += n
	}
	return v
}

func (d *decoder) readString() (v string) {
	if d.more() {
		var n int
		v, n, d.err = ord.String.Unmarshal(d.buf[d.n:])
		d.n += n
	}
	return v
}

func (d *decoder) readBool() (v bool) {
	if d.more() {
		var n int
		v, n, d.err = ord.Bool.Unmarshal(d.buf[d.n:])
		d.n += n
	}
	return v
}

func (d *decoder) readTime() time.Time {
	return microToTime(d.readInt())
}

// more reports whether another field can be read. Every field takes at
// least one byte.
func (d *decoder) more() bool {
	if d.err != nil {
		return false
	}
	if d.n >= len(d.buf) {
		d.err = ErrTruncatedData
		return false
	}
	return true
}

func (d *decoder) done(what string) error {
	if d.err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSerializationFailed, what, d.err)
	}
	return nil
}

// Timestamps are stored as Unix microseconds. The zero time is stored as 0.
func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	d := decoder{buf: data}
	id := core.ID(d.readUint())
	return id, d.done("id")
}

// MarshalBuild serializes a Build to bytes.
func MarshalBuild(build *core.Build) []byte {
	size := varint.Uint64.Size(uint64(build.Id)) +
		ord.String.Size(build.Number) +
		ord.String.Size(build.BuildTypeId) +
		ord.String.Size(build.Branch) +
		varint.Int64.Size(int64(build.Status)) +
		ord.Bool.Size(build.Pinned) +
		varint.Int64.Size(timeToMicro(build.StartedAt)) +
		varint.Int64.Size(timeToMicro(build.FinishedAt))

	e := encoder{buf: make([]byte, size)}
	e.putUint(uint64(build.Id))
	e.putString(build.Number)
	e.putString(build.BuildTypeId)
	e.putString(build.Branch)
	e.putInt(int64(build.Status))
	e.putBool(build.Pinned)
	e.putInt(timeToMicro(build.StartedAt))
	e.putInt(timeToMicro(build.FinishedAt))
	return e.buf
}

// UnmarshalBuild deserializes a Build from bytes.
func UnmarshalBuild(data []byte) (*core.Build, error) {
	d := decoder{buf: data}
	build := &core.Build{
		Id:          core.ID(d.readUint()),
		Number:      d.readString(),
		BuildTypeId: d.readString(),
		Branch:      d.readString(),
		Status:      core.BuildStatus(d.readInt()),
		Pinned:      d.readBool(),
		StartedAt:   d.readTime(),
		FinishedAt:  d.readTime(),
	}
	if err := d.done("build"); err != nil {
		return nil, err
	}
	return build, nil
}

// MarshalTestOccurrence serializes a TestOccurrence to bytes.
func MarshalTestOccurrence(test *core.TestOccurrence) []byte {
	size := varint.Uint64.Size(uint64(test.Id)) +
		varint.Uint64.Size(uint64(test.BuildId)) +
		varint.Uint64.Size(uint64(test.TestNameId)) +
		ord.String.Size(test.Name) +
		varint.Int64.Size(int64(test.Status)) +
		ord.Bool.Size(test.Muted) +
		varint.Int64.Size(test.DurationMs)

	e := encoder{buf: make([]byte, size)}
	e.putUint(uint64(test.Id))
	e.putUint(uint64(test.BuildId))
	e.putUint(uint64(test.TestNameId))
	e.putString(test.Name)
	e.putInt(int64(test.Status))
	e.putBool(test.Muted)
	e.putInt(test.DurationMs)
	return e.buf
}

// UnmarshalTestOccurrence deserializes a TestOccurrence from bytes.
func UnmarshalTestOccurrence(data []byte) (*core.TestOccurrence, error) {
	d := decoder{buf: data}
	test := &core.TestOccurrence{
		Id:         core.ID(d.readUint()),
		BuildId:    core.ID(d.readUint()),
		TestNameId: core.ID(d.readUint()),
		Name:       d.readString(),
		Status:     core.TestStatus(d.readInt()),
		Muted:      d.readBool(),
		DurationMs: d.readInt(),
	}
	if err := d.done("test occurrence"); err != nil {
		return nil, err
	}
	return test, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	size := ord.String.Size(checkpoint.Source) +
		varint.Int64.Size(checkpoint.Position) +
		varint.Int64.Size(timeToMicro(checkpoint.UpdatedAt))

	e := encoder{buf: make([]byte, size)}
	e.putString(checkpoint.Source)
	e.putInt(checkpoint.Position)
	e.putInt(timeToMicro(checkpoint.UpdatedAt))
	return e.buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	d := decoder{buf: data}
	checkpoint := &core.Checkpoint{
		Source:    d.readString(),
		Position:  d.readInt(),
		UpdatedAt: d.readTime(),
	}
	if err := d.done("checkpoint"); err != nil {
		return nil, err
	}
	return checkpoint, nil
}
