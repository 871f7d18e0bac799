package catalog

import "github.com/kailas-cloud/prodsearch/internal/db"

func productKey(prefix, id string) string {
	return prefix + "product:" + id
}

func versionKey(prefix string) string {
	return prefix + "catalog:version"
}

func indexName(prefix string) string {
	return prefix + "products:idx"
}

// idSeparator splits the id TAG. product.New rejects control characters, so
// every id is indexed as exactly one tag.
const idSeparator = "\x1f"

// buildIndex returns the FT index over product hashes. Both TAG fields are
// case-sensitive exact matches.
func buildIndex(prefix string) (*db.IndexDefinition, error) {
	return db.NewIndex(indexName(prefix)).
		Prefix(prefix+"product:").
		CaseSensitiveTag(fieldID, idSeparator).
		CaseSensitiveTag(fieldCategory, "|").
		Numeric(fieldPrice).
		Numeric(fieldStars).
		Numeric(fieldReviews).
		SortableNumeric(fieldPopularity).
		Build()
}
