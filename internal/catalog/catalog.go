// Package catalog provides the read-only plant catalog.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// AllCategories is the category entry that disables filtering.
const AllCategories = "All"

// FeaturedMinRating is the rating from which a plant is featured on the home page.
const FeaturedMinRating = 4.7

// ErrPlantNotFound is returned when no plant has the requested id.
var ErrPlantNotFound = errors.New("plant not found")

//go:embed plants.json
var embeddedPlants []byte

// Plant is a catalog entry.
type Plant struct {
	ID             int     `json:"plantId"`
	Name           string  `json:"plantName"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	Rating         float64 `json:"rating"`
	AvailableStock int     `json:"availableStock"`
	CareLevel      string  `json:"careLevel"`
	Description    string  `json:"description"`
	Image          string  `json:"image"`
	ProviderName   string  `json:"providerName"`
}

// InStock reports whether the plant can be ordered.
func (p Plant) InStock() bool {
	return p.AvailableStock > 0
}

// Catalog is an immutable list of plants.
type Catalog struct {
	plants     []Plant
	byID       map[int]int
	categories []string
}

// Load parses a JSON encoded plant list.
func Load(data []byte) (*Catalog, error) {
	var plants []Plant
	if err := json.Unmarshal(data, &plants); err != nil {
		return nil, fmt.Errorf("failed to decode plants: %w", err)
	}

	c := &Catalog{
		plants:     plants,
		byID:       make(map[int]int, len(plants)),
		categories: []string{AllCategories},
	}

	seen := make(map[string]bool)

	for i, p := range plants {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plant id %d", p.ID)
		}

		c.byID[p.ID] = i

		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			c.categories = append(c.categories, p.Category)
		}
	}

	return c, nil
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Load(embeddedPlants)
}

// Plants returns all plants in catalog order.
func (c *Catalog) Plants() []Plant {
	return append([]Plant(nil), c.plants...)
}

// Categories returns AllCategories followed by every category in first-seen order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Filter returns the plants of category. An empty category or AllCategories returns every plant.
func (c *Catalog) Filter(category string) []Plant {
	if category == "" || category == AllCategories {
		return c.Plants()
	}

	var out []Plant

	for _, p := range c.plants {
		if p.Category == category {
			out = append(out, p)
		}
	}

	return out
}

// Find returns the plant with id.
func (c *Catalog) Find(id int) (Plant, error) {
	i, ok := c.byID[id]
	if !ok {
		return Plant{}, ErrPlantNotFound
	}

	return c.plants[i], nil
}

// Featured returns the plants rated FeaturedMinRating or better, best rated first.
func (c *Catalog) Featured() []Plant {
	var out []Plant

	for _, p := range c.plants {
		if p.Rating >= FeaturedMinRating {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})

	return out
}
