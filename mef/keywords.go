package mef

import (
	"fmt"
	"io"

	"github.com/astrokit/mefkit/fits"
)

// KeywordStore manipulates keywords across one or more headers. In
// non-extension mode it addresses exactly one header (the PHU). In extension
// mode every read fans out across the bound extension headers and every
// write broadcasts to all of them; a store built from a single-extension
// slice keeps the fan-out semantics but collapses results to one value where
// the caller expects it.
type KeywordStore struct {
	headers []*fits.Header
	onExt   bool
	single  bool
}

// newPHUStore binds the primary header only.
func newPHUStore(phu *fits.Header) *KeywordStore {
	return &KeywordStore{headers: []*fits.Header{phu}}
}

// newExtStore binds a list of extension headers.
func newExtStore(headers []*fits.Header, single bool) *KeywordStore {
	return &KeywordStore{headers: headers, onExt: true, single: single}
}

// Len returns the number of bound headers.
func (ks *KeywordStore) Len() int { return len(ks.headers) }

// Value returns the value of key on a single-header view. In extension mode
// with several bound headers it returns the first header's value; prefer
// Values there.
func (ks *KeywordStore) Value(key string) (any, error) {
	if ks.onExt && !ks.single {
		vals, err := ks.Values(key)
		if err != nil {
			return nil, err
		}
		return vals[0], nil
	}
	v, ok := ks.headers[0].Get(key)
	if !ok {
		return nil, &KeyMissingError{Key: key}
	}
	return v, nil
}

// ValueDefault is Value with a fallback instead of an error.
func (ks *KeywordStore) ValueDefault(key string, def any) any {
	v, err := ks.Value(key)
	if err != nil {
		return def
	}
	return v
}

// Values fans key out across every bound header, returning the per-header
// values in position order. When the key is missing from some but not all
// headers the error is a *KeyMissingError carrying the missing positions and
// the partial result vector.
func (ks *KeywordStore) Values(key string) ([]any, error) {
	vals := make([]any, len(ks.headers))
	var missing []int
	for i, h := range ks.headers {
		v, ok := h.Get(key)
		if !ok {
			missing = append(missing, i)
			continue
		}
		vals[i] = v
	}
	if len(missing) > 0 {
		return nil, &KeyMissingError{Key: key, MissingAt: missing, Partial: vals}
	}
	return vals, nil
}

// ValuesDefault is Values with missing positions replaced by def.
func (ks *KeywordStore) ValuesDefault(key string, def any) []any {
	vals, err := ks.Values(key)
	if err == nil {
		return vals
	}
	km, ok := err.(*KeyMissingError)
	if !ok {
		return nil
	}
	vals = km.Partial
	for _, i := range km.MissingAt {
		vals[i] = def
	}
	return vals
}

// Set broadcasts key=value (with an optional comment) to every bound header.
func (ks *KeywordStore) Set(key string, value any, comment string) {
	for _, h := range ks.headers {
		h.Set(key, value, comment)
	}
}

// Delete removes key from every bound header. It fails with KeyMissing only
// when the key existed in none of them.
func (ks *KeywordStore) Delete(key string) error {
	deleted := 0
	for _, h := range ks.headers {
		if h.Delete(key) {
			deleted++
		}
	}
	if deleted == 0 {
		return &KeyMissingError{Key: key}
	}
	return nil
}

// Has reports whether key is present in at least one bound header.
func (ks *KeywordStore) Has(key string) bool {
	for _, h := range ks.headers {
		if h.Has(key) {
			return true
		}
	}
	return false
}

// Comment returns the comment of key on the first bound header.
func (ks *KeywordStore) Comment(key string) (string, error) {
	c, ok := ks.headers[0].Comment(key)
	if !ok {
		return "", &KeyMissingError{Key: key}
	}
	return c, nil
}

// Comments fans the comment lookup out across all bound headers.
func (ks *KeywordStore) Comments(key string) ([]string, error) {
	out := make([]string, len(ks.headers))
	var missing []int
	for i, h := range ks.headers {
		c, ok := h.Comment(key)
		if !ok {
			missing = append(missing, i)
			continue
		}
		out[i] = c
	}
	if len(missing) > 0 {
		return nil, &KeyMissingError{Key: key, MissingAt: missing}
	}
	return out, nil
}

// SetComment updates the comment of an existing card in every bound header;
// the key must be present everywhere.
func (ks *KeywordStore) SetComment(key, comment string) error {
	for i, h := range ks.headers {
		if !h.Has(key) {
			return &KeyMissingError{Key: key, MissingAt: []int{i}}
		}
	}
	for _, h := range ks.headers {
		_ = h.SetComment(key, comment)
	}
	return nil
}

// Keywords returns the keyword sets, one per bound header.
func (ks *KeywordStore) Keywords() [][]string {
	out := make([][]string, len(ks.headers))
	for i, h := range ks.headers {
		out[i] = h.Keys()
	}
	return out
}

// Show dumps every bound header to w, card by card.
func (ks *KeywordStore) Show(w io.Writer) {
	for i, h := range ks.headers {
		if ks.onExt {
			fmt.Fprintf(w, "==== Header #%d ====\n", i)
		}
		for _, c := range h.Cards() {
			if c.IsCommentary() {
				fmt.Fprintf(w, "%-8s %s\n", c.Key, c.Comment)
				continue
			}
			if c.Comment != "" {
				fmt.Fprintf(w, "%-8s= %v / %s\n", c.Key, c.Value, c.Comment)
			} else {
				fmt.Fprintf(w, "%-8s= %v\n", c.Key, c.Value)
			}
		}
	}
}
