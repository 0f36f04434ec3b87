package breeds

import "strings"

// BreedRecord is one static catalog entry.
type BreedRecord struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	Origin          string `json:"origin"`
	Characteristics string `json:"characteristics"`
	MilkProduction  string `json:"milk_production"`
	Purpose         string `json:"purpose"`
	Adaptation      string `json:"adaptation"`
}

// Normalize turns a display name into a breed identifier:
// lowercase, spaces replaced by underscores.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Catalog is an immutable breed table. Safe for concurrent reads.
type Catalog struct {
	keys    []string
	records map[string]BreedRecord
}

// Entry pairs an identifier with its record when seeding a catalog.
type Entry struct {
	Key    string
	Record BreedRecord
}

// NewCatalog builds a catalog. Later entries with a duplicate key win.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		keys:    make([]string, 0, len(entries)),
		records: make(map[string]BreedRecord, len(entries)),
	}
	for _, e := range entries {
		if _, dup := c.records[e.Key]; !dup {
			c.keys = append(c.keys, e.Key)
		}
		c.records[e.Key] = e.Record
	}
	return c
}

// Lookup finds the record for a breed name as returned by the model.
// The name is normalized first; hyphenated names (e.g. "Nili-Ravi")
// also match their underscore key.
func (c *Catalog) Lookup(name string) (string, BreedRecord, bool) {
	key := Normalize(strings.TrimSpace(name))
	if r, ok := c.records[key]; ok {
		return key, r, true
	}
	alt := strings.ReplaceAll(key, "-", "_")
	if r, ok := c.records[alt]; ok {
		return alt, r, true
	}
	return key, BreedRecord{}, false
}

// All returns a copy of the whole mapping.
func (c *Catalog) All() map[string]BreedRecord {
	out := make(map[string]BreedRecord, len(c.records))
	for k, v := range c.records {
		out[k] = v
	}
	return out
}

// Len is the number of records.
func (c *Catalog) Len() int { return len(c.keys) }
