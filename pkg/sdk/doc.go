// Package prodsearch embeds the product search engine in a Go program.
//
// The client ranks a product catalog against free-text queries with the same
// cascade the HTTP API uses: direct matches are scored by text similarity,
// rating, review volume and cluster affinity, and queries that cannot be
// answered fall back to trending products.
//
//	client, _ := prodsearch.New(ctx,
//	    prodsearch.WithSnapshot("catalog.parquet"),
//	    prodsearch.WithIndexFile("text-index.msgpack"),
//	)
//	defer client.Close()
//
//	res, _ := client.Search(ctx, prodsearch.SearchQuery{Query: "wireless mouse", TopK: 5})
//	for _, it := range res.Items {
//	    fmt.Println(it.Product.ID, it.Similarity, it.FinalScore)
//	}
//
// The catalog can also live in Redis with the search module loaded
// (WithRedis); load it with cmd/catalog-loader.
package prodsearch
