package config

import (
	"encoding/json"
	"fmt"
	"os"

	"avvatracker/internal/model"
)

// LoadCategories reads the category list written by the discovery step: a JSON
// array of {categoryId, slug, name}. Entries without an id are skipped.
func LoadCategories(path string) ([]model.CategoryRef, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories %s: %w", path, err)
	}

	var raw []model.CategoryRef
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode categories %s: %w", path, err)
	}

	out := make([]model.CategoryRef, 0, len(raw))
	for _, c := range raw {
		if c.CategoryID <= 0 {
			continue
		}
		if c.Slug == "" {
			c.Slug = fmt.Sprintf("category-%d", c.CategoryID)
		}
		out = append(out, c)
	}
	return out, nil
}

// FilterCategories applies the CLI selection flags. A non-zero id wins over
// quick mode; quick keeps the first five categories.
func FilterCategories(all []model.CategoryRef, id int64, quick bool) []model.CategoryRef {
	if id > 0 {
		var out []model.CategoryRef
		for _, c := range all {
			if c.CategoryID == id {
				out = append(out, c)
			}
		}
		return out
	}
	if quick && len(all) > 5 {
		return all[:5]
	}
	return all
}
