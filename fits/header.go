package fits

import "fmt"

// Header is an ordered collection of cards, addressable by keyword. Mutation
// happens in place; a Header keeps its identity for the lifetime of the unit
// it is bound to. Commentary keywords may repeat; value keywords are unique
// and Set replaces the first occurrence.
type Header struct {
	cards []Card
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{}
}

// HeaderOf builds a header from a literal card sequence. Intended for tests
// and synthetic units.
func HeaderOf(cards ...Card) *Header {
	h := &Header{cards: make([]Card, len(cards))}
	copy(h.cards, cards)
	return h
}

// Len returns the number of cards.
func (h *Header) Len() int { return len(h.cards) }

// Cards returns the underlying card slice. The slice is live; callers must
// not grow it directly.
func (h *Header) Cards() []Card { return h.cards }

// Keys returns all keywords in card order, including repeats.
func (h *Header) Keys() []string {
	out := make([]string, len(h.cards))
	for i, c := range h.cards {
		out[i] = c.Key
	}
	return out
}

func (h *Header) index(key string) int {
	for i, c := range h.cards {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool { return h.index(key) >= 0 }

// Get returns the value bound to key.
func (h *Header) Get(key string) (any, bool) {
	if i := h.index(key); i >= 0 {
		return h.cards[i].Value, true
	}
	return nil, false
}

// Int returns key's value as an int, or def when the key is absent or not
// integral.
func (h *Header) Int(key string, def int) int {
	v, ok := h.Get(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	return def
}

// Str returns key's value as a string, or def.
func (h *Header) Str(key, def string) string {
	if v, ok := h.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Set binds value (and, when non-empty, comment) to key, replacing an
// existing card in place or appending a new one. Commentary keys always
// append.
func (h *Header) Set(key string, value any, comment string) {
	c := Card{Key: key, Value: value, Comment: comment}
	if !c.IsCommentary() {
		if i := h.index(key); i >= 0 {
			if comment == "" {
				c.Comment = h.cards[i].Comment
			}
			h.cards[i] = c
			return
		}
	}
	h.cards = append(h.cards, c)
}

// Append adds a card at the end without looking for an existing keyword.
func (h *Header) Append(c Card) {
	h.cards = append(h.cards, c)
}

// Delete removes every card bound to key and reports whether any was removed.
func (h *Header) Delete(key string) bool {
	kept := h.cards[:0]
	removed := false
	for _, c := range h.cards {
		if c.Key == key {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	h.cards = kept
	return removed
}

// Comment returns the comment attached to key's card.
func (h *Header) Comment(key string) (string, bool) {
	if i := h.index(key); i >= 0 {
		return h.cards[i].Comment, true
	}
	return "", false
}

// SetComment replaces the comment of an existing card.
func (h *Header) SetComment(key, comment string) error {
	i := h.index(key)
	if i < 0 {
		return fmt.Errorf("fits: keyword %q not present", key)
	}
	h.cards[i].Comment = comment
	return nil
}

// Clone returns a deep, independent copy.
func (h *Header) Clone() *Header {
	if h == nil {
		return nil
	}
	out := &Header{cards: make([]Card, len(h.cards))}
	copy(out.cards, h.cards)
	return out
}
