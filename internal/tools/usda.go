package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const fdcDefaultBaseURL = "https://api.nal.usda.gov/fdc/v1"

// FDCClient queries the USDA FoodData Central search API. FDC matches
// both product names and GTIN/UPC codes, so one search endpoint covers
// lookup by either.
type FDCClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewFDCClient(apiKey string) *FDCClient {
	return &FDCClient{
		apiKey:  apiKey,
		baseURL: fdcDefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type fdcSearchResponse struct {
	TotalHits int       `json:"totalHits"`
	Foods     []fdcFood `json:"foods"`
}

type fdcFood struct {
	FDCID       int           `json:"fdcId"`
	Description string        `json:"description"`
	BrandOwner  string        `json:"brandOwner"`
	BrandName   string        `json:"brandName"`
	GTINUPC     string        `json:"gtinUpc"`
	Ingredients string        `json:"ingredients"`
	Nutrients   []fdcNutrient `json:"foodNutrients"`
}

type fdcNutrient struct {
	Name  string  `json:"nutrientName"`
	Value float64 `json:"value"`
	Unit  string  `json:"unitName"`
}

// Lookup implements ProductDatabase.
func (c *FDCClient) Lookup(ctx context.Context, query string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("USDA FoodData Central API key not configured")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", "3")
	params.Set("api_key", c.apiKey)

	endpoint := c.baseURL + "/foods/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("usda: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("usda: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", fmt.Errorf("usda: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("usda: API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var search fdcSearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return "", fmt.Errorf("usda: decode response: %w", err)
	}

	if len(search.Foods) == 0 {
		return fmt.Sprintf("No products found in USDA FoodData Central for %q", query), nil
	}
	return formatFoods(query, search), nil
}

// formatFoods renders search hits as compact text for the model. The
// nutrient list is capped: full FDC records run to dozens of entries.
func formatFoods(query string, search fdcSearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USDA FoodData Central results for %q (%d total hits):\n", query, search.TotalHits)

	for i, f := range search.Foods {
		fmt.Fprintf(&b, "\n%d. %s", i+1, f.Description)
		if f.BrandOwner != "" {
			fmt.Fprintf(&b, " (brand: %s)", f.BrandOwner)
		} else if f.BrandName != "" {
			fmt.Fprintf(&b, " (brand: %s)", f.BrandName)
		}
		b.WriteString("\n")
		if f.GTINUPC != "" {
			fmt.Fprintf(&b, "   UPC: %s\n", f.GTINUPC)
		}
		if f.Ingredients != "" {
			fmt.Fprintf(&b, "   Ingredients: %s\n", f.Ingredients)
		}

		max := len(f.Nutrients)
		if max > 6 {
			max = 6
		}
		for _, n := range f.Nutrients[:max] {
			fmt.Fprintf(&b, "   %s: %g %s\n", n.Name, n.Value, n.Unit)
		}
	}
	return b.String()
}
