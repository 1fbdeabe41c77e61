// Package manifest persists the list of live files setup-etc owns.
//
// The manifest (by default /etc/.clean) is plain text, one name relative to
// the live directory per line, with no escaping. A name is added when an
// entry is materialized as a stamped copy and dropped once the live file no
// longer exists. It is the only state carried between activations.
package manifest

import (
	"bytes"
	"strings"
)

// Manifest is an ordered list of owned names.
type Manifest struct {
	Names []string
}

// New creates a manifest holding names in order.
func New(names ...string) *Manifest {
	return &Manifest{Names: append([]string{}, names...)}
}

// Parse reads newline-delimited names. Every line is taken literally,
// including blank ones; a final newline does not add an empty name.
func Parse(data []byte) *Manifest {
	m := New()
	if len(data) == 0 {
		return m
	}
	text := strings.TrimSuffix(string(data), "\n")
	m.Names = strings.Split(text, "\n")
	return m
}

// Bytes renders the manifest in its on-disk form.
func (m *Manifest) Bytes() []byte {
	var buf bytes.Buffer
	for _, name := range m.Names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Set returns the names as a lookup set.
func (m *Manifest) Set() map[string]bool {
	set := make(map[string]bool, len(m.Names))
	for _, n := range m.Names {
		set[n] = true
	}
	return set
}
