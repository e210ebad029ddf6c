package compile

import (
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shipq/cqlc/query"
)

// Encoder renders a bound value as query-language literal text.
// It is only used when a statement is rendered inline.
type Encoder interface {
	Encode(val any) (string, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(val any) (string, error)

func (f EncoderFunc) Encode(val any) (string, error) { return f(val) }

// DefaultEncoder encodes values with EncodeLiteral.
var DefaultEncoder Encoder = EncoderFunc(EncodeLiteral)

// EncodeLiteral renders val as a CQL literal.
//
// Supported: nil, string, bool, all integer and float kinds, []byte (blob),
// uuid.UUID, time.Time (milliseconds since the epoch), query.Token, and
// pointers, slices, arrays and maps of those.
func EncodeLiteral(val any) (string, error) {
	var b strings.Builder
	if err := writeLiteral(&b, val); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeLiteral(b *strings.Builder, val any) error {
	switch v := val.(type) {
	case nil:
		b.WriteString("NULL")
	case string:
		// Escape single quotes by doubling them
		b.WriteString("'")
		b.WriteString(strings.ReplaceAll(v, "'", "''"))
		b.WriteString("'")
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int8:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int16:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint8:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint16:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint32:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(v, 10))
	case float32:
		b.WriteString(formatFloat(float64(v), 32))
	case float64:
		b.WriteString(formatFloat(v, 64))
	case []byte:
		b.WriteString("0x")
		b.WriteString(hex.EncodeToString(v))
	case uuid.UUID:
		b.WriteString(v.String())
	case time.Time:
		b.WriteString(strconv.FormatInt(v.UnixMilli(), 10))
	case query.Token:
		if len(v.Values) == 0 {
			return fmt.Errorf("token requires at least one value")
		}
		b.WriteString("token(")
		for i, item := range v.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeLiteral(b, item); err != nil {
				return err
			}
		}
		b.WriteString(")")
	default:
		return writeReflectLiteral(b, reflect.ValueOf(val))
	}
	return nil
}

// writeReflectLiteral handles named types, pointers and collections.
func writeReflectLiteral(b *strings.Builder, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			b.WriteString("NULL")
			return nil
		}
		return writeLiteral(b, rv.Elem().Interface())
	case reflect.String:
		return writeLiteral(b, rv.String())
	case reflect.Bool:
		return writeLiteral(b, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return writeLiteral(b, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return writeLiteral(b, rv.Uint())
	case reflect.Float32:
		b.WriteString(formatFloat(rv.Float(), 32))
		return nil
	case reflect.Float64:
		b.WriteString(formatFloat(rv.Float(), 64))
		return nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			b.WriteString("NULL")
			return nil
		}
		b.WriteString("[")
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeLiteral(b, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		b.WriteString("]")
		return nil
	case reflect.Map:
		if rv.IsNil() {
			b.WriteString("NULL")
			return nil
		}
		return writeMapLiteral(b, rv)
	}
	return fmt.Errorf("unsupported literal type %T", rv.Interface())
}

// writeMapLiteral renders {k: v, ...} with entries sorted by encoded key so
// that output is deterministic.
func writeMapLiteral(b *strings.Builder, rv reflect.Value) error {
	type entry struct{ key, value string }
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := EncodeLiteral(iter.Key().Interface())
		if err != nil {
			return err
		}
		v, err := EncodeLiteral(iter.Value().Interface())
		if err != nil {
			return err
		}
		entries = append(entries, entry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	b.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key)
		b.WriteString(": ")
		b.WriteString(e.value)
	}
	b.WriteString("}")
	return nil
}

// formatFloat renders a float so that it always reads as a float literal.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
