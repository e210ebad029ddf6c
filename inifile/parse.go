package inifile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// File is a parsed INI file.
type File struct {
	Sections []Section
}

// Section is a named section. Section and key names are lower-cased.
type Section struct {
	Name   string
	Line   int
	Values []KeyValue // in file order
}

// KeyValue is a single assignment.
type KeyValue struct {
	Key   string
	Value string
	Line  int
}

// SyntaxError reports a line that is neither a section header, an
// assignment, a comment nor blank.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Parse reads an INI file. Full-line comments start with '#' or ';'.
// A ';' or '#' preceded by whitespace starts a trailing comment.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	var current *Section

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, &SyntaxError{Line: lineNo, Text: raw, Msg: "unterminated section header"}
			}
			name := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if name == "" {
				return nil, &SyntaxError{Line: lineNo, Text: raw, Msg: "empty section name"}
			}
			f.Sections = append(f.Sections, Section{Name: name, Line: lineNo})
			current = &f.Sections[len(f.Sections)-1]
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &SyntaxError{Line: lineNo, Text: raw, Msg: "expected key = value"}
		}
		if current == nil {
			return nil, &SyntaxError{Line: lineNo, Text: raw, Msg: "key outside of any section"}
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, &SyntaxError{Line: lineNo, Text: raw, Msg: "empty key"}
		}
		current.Values = append(current.Values, KeyValue{
			Key:   key,
			Value: strings.TrimSpace(value),
			Line:  lineNo,
		})
	}

	return f, scanner.Err()
}

func stripComment(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
		return ""
	}
	for i := 1; i < len(line); i++ {
		if (line[i] == ';' || line[i] == '#') && (line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}

// ParseFile reads and parses an INI file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	parsed, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

// Section returns the first section with the given name (case-insensitive).
func (f *File) Section(name string) *Section {
	name = strings.ToLower(name)
	for i := range f.Sections {
		if f.Sections[i].Name == name {
			return &f.Sections[i]
		}
	}
	return nil
}

// Get returns the last value for a key in a section.
func (f *File) Get(section, key string) string {
	s := f.Section(section)
	if s == nil {
		return ""
	}
	return s.Get(key)
}

// SectionsWithPrefix returns sections whose names start with prefix, in
// file order.
func (f *File) SectionsWithPrefix(prefix string) []Section {
	prefix = strings.ToLower(prefix)
	var result []Section
	for _, s := range f.Sections {
		if strings.HasPrefix(s.Name, prefix) {
			result = append(result, s)
		}
	}
	return result
}

// Get returns the last value for a key (case-insensitive).
func (s *Section) Get(key string) string {
	kv := s.lookup(key)
	if kv == nil {
		return ""
	}
	return kv.Value
}

// HasKey reports whether the section assigns key.
func (s *Section) HasKey(key string) bool {
	return s.lookup(key) != nil
}

// List splits a comma-separated value, dropping empty items.
func (s *Section) List(key string) []string {
	var items []string
	for _, item := range strings.Split(s.Get(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Bool parses a boolean value. A missing key yields def.
func (s *Section) Bool(key string, def bool) (bool, error) {
	kv := s.lookup(key)
	if kv == nil {
		return def, nil
	}
	switch strings.ToLower(kv.Value) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(kv.Value)
	if err != nil {
		return false, fmt.Errorf("line %d: [%s] %s: invalid boolean %q", kv.Line, s.Name, kv.Key, kv.Value)
	}
	return b, nil
}

// Unknown returns the keys of s that are not in allowed.
func (s *Section) Unknown(allowed ...string) []KeyValue {
	var unknown []KeyValue
	for _, kv := range s.Values {
		found := false
		for _, a := range allowed {
			if kv.Key == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, kv)
		}
	}
	return unknown
}

func (s *Section) lookup(key string) *KeyValue {
	key = strings.ToLower(key)
	var last *KeyValue
	for i := range s.Values {
		if s.Values[i].Key == key {
			last = &s.Values[i]
		}
	}
	return last
}
