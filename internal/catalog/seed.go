package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/dineout/internal/models"
)

type seedFile struct {
	Restaurants []seedRestaurant `yaml:"restaurants"`
}

type seedRestaurant struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Address    string   `yaml:"address"`
	City       string   `yaml:"city"`
	Cuisines   []string `yaml:"cuisines"`
	PriceRange int      `yaml:"price_range"`
	DiningType string   `yaml:"dining_type"`
}

// LoadSeed reads a YAML catalog file.
func LoadSeed(path string) ([]models.Restaurant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes catalog entries. Every entry needs an id and a name,
// and ids must be unique.
func ParseSeed(data []byte) ([]models.Restaurant, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	seen := make(map[string]bool, len(f.Restaurants))
	out := make([]models.Restaurant, 0, len(f.Restaurants))
	for i, s := range f.Restaurants {
		id := strings.TrimSpace(s.ID)
		if id == "" || strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("seed entry %d: id and name are required", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("seed entry %d: duplicate id %q", i, id)
		}
		seen[id] = true

		out = append(out, models.Restaurant{
			ID:         id,
			Name:       strings.TrimSpace(s.Name),
			Address:    s.Address,
			City:       s.City,
			Cuisines:   s.Cuisines,
			PriceRange: s.PriceRange,
			DiningType: s.DiningType,
		})
	}
	return out, nil
}
