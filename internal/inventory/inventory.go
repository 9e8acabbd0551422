// Package inventory loads the sellable-catalog snapshot the assistant
// grounds its answers on. The snapshot is fetched once at startup and
// treated as read-only afterwards; every prompt construction shares it by
// reference without locking.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Item is one sellable laptop. Code is the unique catalog SKU.
type Item struct {
	Brand       string  `json:"brand"`
	Code        string  `json:"code"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Fallback is the embedded list used whenever the catalog backend cannot be
// reached, so the snapshot is never empty at prompt-construction time.
func Fallback() []Item {
	return []Item{
		{Brand: "Lenovo", Code: "SKU-LAPTOP-let01", Price: 1200.00, Description: "Lenovo ThinkPad X1 Carbon"},
		{Brand: "Asus", Code: "SKU-LAPTOP-asu01", Price: 1500.00, Description: "Asus ROG Strix Gaming"},
		{Brand: "Apple", Code: "SKU-LAPTOP-mbk01", Price: 2000.00, Description: "MacBook Pro M1 14ulg"},
	}
}

// Loader fetches the catalog from the storefront backend.
type Loader struct {
	HTTPClient *http.Client
	BaseURL    string
}

// NewLoader builds a loader against the given backend base URL.
func NewLoader(baseURL string) *Loader {
	return &Loader{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
	}
}

// Load GETs /api/computers once and returns the snapshot. Any failure
// (network, status, decode, empty list) degrades to the embedded fallback;
// the returned slice is never empty.
func (l *Loader) Load(ctx context.Context) []Item {
	items, err := l.fetch(ctx)
	if err != nil {
		log.Printf("inventory: backend load failed, using fallback: %v", err)
		return Fallback()
	}
	log.Printf("inventory: loaded %d items from backend", len(items))
	return items
}

func (l *Loader) fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+"/api/computers", nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inventory: status=%d", resp.StatusCode)
	}
	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("inventory: backend returned empty catalog")
	}
	return items, nil
}
