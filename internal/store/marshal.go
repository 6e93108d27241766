package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/reflex/internal/catalog"
)

// marshalCatalog returns the content hash and canonical JSON body of c.
func marshalCatalog(c catalog.Catalog) (string, string, error) {
	body, err := catalog.MarshalCanonical(c)
	if err != nil {
		return "", "", fmt.Errorf("marshal catalog: %w", err)
	}
	hash, err := catalog.Hash(c)
	if err != nil {
		return "", "", err
	}
	return hash, string(body), nil
}

// unmarshalCatalog decodes a stored catalog body.
func unmarshalCatalog(body string) (catalog.Catalog, error) {
	var c catalog.Catalog
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return catalog.Catalog{}, fmt.Errorf("unmarshal catalog: %w", err)
	}
	return c, nil
}
