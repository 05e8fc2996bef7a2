package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CartEntry is one persisted cart line: a product and its quantity.
type CartEntry struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

// DecodeCart reads a persisted cart. It accepts the current
// [{"id":..,"quantity":..}] format and the older identifier-only
// ["id", ...] format, where every entry counts once.
func DecodeCart(data []byte) ([]CartEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	entries := make([]CartEntry, 0, len(raw))
	for _, item := range raw {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			entries = append(entries, CartEntry{ProductID: id, Quantity: 1})
			continue
		}

		var entry CartEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, fmt.Errorf("decode cart entry: %w", err)
		}
		if entry.ProductID == "" {
			return nil, errors.New("decode cart entry: missing id")
		}
		if entry.Quantity < 1 {
			entry.Quantity = 1
		}
		entries = append(entries, entry)
	}
	return MergeCart(entries), nil
}

// MergeCart folds duplicate product ids into one entry, keeping first-seen order.
func MergeCart(entries []CartEntry) []CartEntry {
	index := make(map[string]int, len(entries))
	out := make([]CartEntry, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.ProductID]; ok {
			out[i].Quantity += e.Quantity
			continue
		}
		index[e.ProductID] = len(out)
		out = append(out, e)
	}
	return out
}

func EncodeCart(entries []CartEntry) ([]byte, error) {
	if entries == nil {
		entries = []CartEntry{}
	}
	return json.Marshal(entries)
}

// CheckoutSnapshot is what the session keeps about the last placed order.
type CheckoutSnapshot struct {
	OrderID       string      `json:"order_id"`
	Amount        float64     `json:"amount"`
	Currency      string      `json:"currency"`
	PaymentStatus string      `json:"payment_status"`
	Items         []OrderItem `json:"items"`
	PlacedAt      time.Time   `json:"placed_at"`
}
