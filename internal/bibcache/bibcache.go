// Package bibcache provides an optional gorm+sqlite-backed cache of
// resolved citation display strings, so repeated \cite lookups against the
// same .bib/.bbl don't re-parse bibliography data on every call. It
// implements the latex.BibCache interface by structural typing.
package bibcache

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// entry is the persisted row: one resolved citation per (bib path, key).
type entry struct {
	ID       uint   `gorm:"primarykey"`
	BibPath  string `gorm:"index:idx_bib_key,unique"`
	Key      string `gorm:"index:idx_bib_key,unique"`
	Resolved string
}

// Cache wraps a *gorm.DB and satisfies latex.BibCache.
type Cache struct {
	db *gorm.DB
}

// Open opens (creating if needed) a sqlite-backed cache at path. Pass
// ":memory:" for a process-local, non-persistent cache in tests.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Lookup returns the resolved display string for (bibPath, key), if cached.
func (c *Cache) Lookup(bibPath, key string) (string, bool) {
	var e entry
	res := c.db.Where("bib_path = ? AND key = ?", bibPath, key).First(&e)
	if res.Error != nil {
		return "", false
	}
	return e.Resolved, true
}

// Store persists a resolved citation, overwriting any prior entry for the
// same (bibPath, key).
func (c *Cache) Store(bibPath, key, resolved string) error {
	e := entry{BibPath: bibPath, Key: key, Resolved: resolved}
	return c.db.Where("bib_path = ? AND key = ?", bibPath, key).
		Assign(entry{Resolved: resolved}).
		FirstOrCreate(&e).Error
}
