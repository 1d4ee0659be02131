// Package cart holds the in-progress service selection and keeps it
// addressable across pages by persisting every mutation to durable
// per-locale storage.
package cart

import (
	"sort"
	"sync"

	"meta-checkout/internal/model"

	"github.com/rs/zerolog"
)

// Cart is an explicit store of selected service tiers and add-ons for one
// locale. Persistence is an injected side effect, not ambient global state.
type Cart struct {
	mu      sync.Mutex
	locale  string
	entries []model.CartEntry
	storage Storage
	logger  zerolog.Logger
}

// New creates a cart for a locale, hydrating it from storage. A failed or
// malformed load starts with an empty cart rather than failing.
func New(locale string, storage Storage, logger zerolog.Logger) *Cart {
	c := &Cart{
		locale:  locale,
		storage: storage,
		logger:  logger.With().Str("component", "cart").Str("locale", locale).Logger(),
	}

	entries, err := storage.Load(locale)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to hydrate cart from storage")
	} else {
		for i := range entries {
			entries[i] = normalizeEntry(entries[i])
		}
		c.entries = entries
	}

	return c
}

// Add inserts an entry if its id is not already present. Adding a duplicate
// id is a no-op, never a duplicate line item.
func (c *Cart) Add(entry model.CartEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.containsLocked(entry.ID) {
		return
	}
	c.entries = append(c.entries, normalizeEntry(entry))
	c.persistLocked()
}

// Remove deletes the entry with the given id; absent ids are a no-op.
func (c *Cart) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := c.entries[:0]
	for _, e := range c.entries {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == len(c.entries) {
		return
	}
	c.entries = filtered
	c.persistLocked()
}

// Toggle adds the entry if absent and removes it if present — the single
// control behind "select/deselect service".
func (c *Cart) Toggle(entry model.CartEntry) {
	c.mu.Lock()
	present := c.containsLocked(entry.ID)
	c.mu.Unlock()

	if present {
		c.Remove(entry.ID)
	} else {
		c.Add(entry)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil
	c.persistLocked()
}

// IsInCart reports whether an entry with the given id is selected.
func (c *Cart) IsInCart(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.containsLocked(id)
}

// Items returns a snapshot copy of the current entries.
func (c *Cart) Items() []model.CartEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]model.CartEntry, len(c.entries))
	copy(snapshot, c.entries)
	return snapshot
}

// Replace swaps the whole cart for the given entries. Used when a resume
// token rehydrates an order snapshot: the stored cart is replaced, not merged.
func (c *Cart) Replace(entries []model.CartEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make([]model.CartEntry, 0, len(entries))
	for _, e := range entries {
		c.entries = append(c.entries, normalizeEntry(e))
	}
	c.persistLocked()
}

// SummarizeTotals groups primary and secondary amounts by currency code and
// sums per currency. Entries without a parsed amount contribute nothing.
// The result is sorted by currency code so output is deterministic
// regardless of entry order.
func (c *Cart) SummarizeTotals() []model.CurrencyTotal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SummarizeTotals(c.entries)
}

// SummarizeTotals sums cart entries per currency in minor units.
func SummarizeTotals(entries []model.CartEntry) []model.CurrencyTotal {
	totals := make(map[string]int64)
	for _, e := range entries {
		if e.Currency != "" && e.AmountMinor != nil {
			totals[e.Currency] += *e.AmountMinor
		}
		if e.SecondaryCurrency != "" && e.SecondaryAmountMinor != nil {
			totals[e.SecondaryCurrency] += *e.SecondaryAmountMinor
		}
	}

	result := make([]model.CurrencyTotal, 0, len(totals))
	for currency, amount := range totals {
		result = append(result, model.CurrencyTotal{Currency: currency, AmountMinor: amount})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Currency < result[j].Currency
	})
	return result
}

func (c *Cart) containsLocked(id string) bool {
	for _, e := range c.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (c *Cart) persistLocked() {
	if err := c.storage.Save(c.locale, c.entries); err != nil {
		c.logger.Warn().Err(err).Msg("failed to persist cart to storage")
	}
}

// normalizeEntry fills the parsed currency/amount fields from the price
// labels when they are not already set.
func normalizeEntry(entry model.CartEntry) model.CartEntry {
	if entry.AmountMinor == nil && entry.PriceLabel != "" {
		if currency, amount, ok := ParsePriceLabel(entry.PriceLabel); ok {
			if entry.Currency == "" {
				entry.Currency = currency
			}
			entry.AmountMinor = &amount
		}
	}
	if entry.SecondaryAmountMinor == nil && entry.SecondaryPriceLabel != "" {
		if currency, amount, ok := ParsePriceLabel(entry.SecondaryPriceLabel); ok {
			if entry.SecondaryCurrency == "" {
				entry.SecondaryCurrency = currency
			}
			entry.SecondaryAmountMinor = &amount
		}
	}
	return entry
}
