package core

import (
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/tweska/multio/cmn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind tags the dynamic type carried by a single Metadata value.
type Kind int

const (
	KindI64 Kind = iota
	KindF64
	KindBool
	KindString
	KindListI64
	KindListF64
	KindListString
)

// value holds exactly one of the typed fields below, selected by Kind.
// Copied on every write/read.
type value struct {
	kind    Kind
	i64     int64
	f64     float64
	boolean bool
	str     string
	listI64 []int64
	listF64 []float64
	listStr []string
}

// Metadata is an ordered, string-keyed, dynamically typed map. Insertion
// order is preserved for iteration; the canonical serialized form sorts
// keys for stability.
type Metadata struct {
	mu   sync.Mutex
	keys []string
	vals map[string]value
}

func NewMetadata() *Metadata {
	return &Metadata{vals: make(map[string]value, 8)}
}

func (m *Metadata) setLocked(key string, v value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *Metadata) SetI64(key string, v int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value{kind: KindI64, i64: v})
}

func (m *Metadata) SetF64(key string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value{kind: KindF64, f64: v})
}

func (m *Metadata) SetBool(key string, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value{kind: KindBool, boolean: v})
}

func (m *Metadata) SetString(key, v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value{kind: KindString, str: v})
}

func (m *Metadata) SetListI64(key string, v []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value{kind: KindListI64, listI64: append([]int64(nil), v...)})
}

func (m *Metadata) SetListF64(key string, v []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value{kind: KindListF64, listF64: append([]float64(nil), v...)})
}

func (m *Metadata) SetListString(key string, v []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value{kind: KindListString, listStr: append([]string(nil), v...)})
}

// Delete removes a key, a no-op if absent.
func (m *Metadata) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *Metadata) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vals[key]
	return ok
}

// get returns the raw value and whether it is present.
func (m *Metadata) get(key string) (value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, ok
}

// Typed getters. A typed get fails on a missing key or kind mismatch;
// the Opt variant returns (zero, false) instead of failing.

func (m *Metadata) I64(key string) (int64, error) {
	v, ok := m.get(key)
	if !ok || v.kind != KindI64 {
		return 0, cmn.NewMetadataMissing(key)
	}
	return v.i64, nil
}

func (m *Metadata) OptI64(key string) (int64, bool) {
	v, ok := m.get(key)
	if !ok || v.kind != KindI64 {
		return 0, false
	}
	return v.i64, true
}

func (m *Metadata) F64(key string) (float64, error) {
	v, ok := m.get(key)
	if !ok || v.kind != KindF64 {
		return 0, cmn.NewMetadataMissing(key)
	}
	return v.f64, nil
}

func (m *Metadata) OptF64(key string) (float64, bool) {
	v, ok := m.get(key)
	if !ok || v.kind != KindF64 {
		return 0, false
	}
	return v.f64, true
}

func (m *Metadata) Bool(key string) (bool, error) {
	v, ok := m.get(key)
	if !ok || v.kind != KindBool {
		return false, cmn.NewMetadataMissing(key)
	}
	return v.boolean, nil
}

func (m *Metadata) OptBool(key string) (bool, bool) {
	v, ok := m.get(key)
	if !ok || v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

func (m *Metadata) String(key string) (string, error) {
	v, ok := m.get(key)
	if !ok || v.kind != KindString {
		return "", cmn.NewMetadataMissing(key)
	}
	return v.str, nil
}

func (m *Metadata) OptString(key string) (string, bool) {
	v, ok := m.get(key)
	if !ok || v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (m *Metadata) ListI64(key string) ([]int64, error) {
	v, ok := m.get(key)
	if !ok || v.kind != KindListI64 {
		return nil, cmn.NewMetadataMissing(key)
	}
	return append([]int64(nil), v.listI64...), nil
}

func (m *Metadata) ListF64(key string) ([]float64, error) {
	v, ok := m.get(key)
	if !ok || v.kind != KindListF64 {
		return nil, cmn.NewMetadataMissing(key)
	}
	return append([]float64(nil), v.listF64...), nil
}

func (m *Metadata) ListString(key string) ([]string, error) {
	v, ok := m.get(key)
	if !ok || v.kind != KindListString {
		return nil, cmn.NewMetadataMissing(key)
	}
	return append([]string(nil), v.listStr...), nil
}

// Clone deep-copies the map (values are copied on write).
func (m *Metadata) Clone() *Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := NewMetadata()
	out.keys = append([]string(nil), m.keys...)
	out.vals = make(map[string]value, len(m.vals))
	for k, v := range m.vals {
		out.vals[k] = v
	}
	return out
}

// Canonical returns the stable, sorted-key JSON serialization used as a
// cache key and for framing.
func (m *Metadata) Canonical() string {
	m.mu.Lock()
	keys := append([]string(nil), m.keys...)
	vals := make(map[string]value, len(m.vals))
	for k, v := range m.vals {
		vals[k] = v
	}
	m.mu.Unlock()

	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		sb.Write(kb)
		sb.WriteByte(':')
		sb.Write(marshalValue(vals[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func marshalValue(v value) []byte {
	var b []byte
	switch v.kind {
	case KindI64:
		b, _ = json.Marshal(v.i64)
	case KindF64:
		b, _ = json.Marshal(v.f64)
	case KindBool:
		b, _ = json.Marshal(v.boolean)
	case KindString:
		b, _ = json.Marshal(v.str)
	case KindListI64:
		b, _ = json.Marshal(v.listI64)
	case KindListF64:
		b, _ = json.Marshal(v.listF64)
	case KindListString:
		b, _ = json.Marshal(v.listStr)
	default:
		b = []byte("null")
	}
	return b
}

// MarshalBinary/UnmarshalBinary implement the metadata-bytes half of the
// transport framing.
func (m *Metadata) MarshalBinary() ([]byte, error) {
	return []byte(m.Canonical()), nil
}

func (m *Metadata) UnmarshalBinary(data []byte) error {
	raw := map[string]jsoniter.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = nil
	m.vals = make(map[string]value, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := decodeValue(raw[k])
		if err != nil {
			return err
		}
		m.setLocked(k, v)
	}
	return nil
}

func decodeValue(raw jsoniter.RawMessage) (value, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return value{}, err
	}
	switch t := probe.(type) {
	case bool:
		return value{kind: KindBool, boolean: t}, nil
	case float64:
		if t == float64(int64(t)) {
			return value{kind: KindI64, i64: int64(t)}, nil
		}
		return value{kind: KindF64, f64: t}, nil
	case string:
		return value{kind: KindString, str: t}, nil
	case []any:
		if len(t) == 0 {
			return value{kind: KindListString}, nil
		}
		switch t[0].(type) {
		case string:
			var l []string
			_ = json.Unmarshal(raw, &l)
			return value{kind: KindListString, listStr: l}, nil
		case float64:
			allInt := true
			for _, e := range t {
				f := e.(float64)
				if f != float64(int64(f)) {
					allInt = false
					break
				}
			}
			if allInt {
				var l []int64
				_ = json.Unmarshal(raw, &l)
				return value{kind: KindListI64, listI64: l}, nil
			}
			var l []float64
			_ = json.Unmarshal(raw, &l)
			return value{kind: KindListF64, listF64: l}, nil
		}
	}
	return value{}, cmn.NewFieldError("unsupported metadata value")
}
