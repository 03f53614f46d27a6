// Package s3 stores saidx indexes in Amazon S3.
//
//	store, err := s3.New(ctx, "genomics",
//	    s3.WithPrefix("indexes/gencode-v44/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	stats, err := saidx.Build(ctx, cfg, saidx.WithStore(store))
//	ix, err := saidx.Open(ctx, store)
//
// Artifacts stream through multipart uploads with CRC32C verification.
// Reads are ranged GETs, so opening an index fetches each artifact once.
// WithEndpoint targets S3-compatible services with path-style addressing.
package s3
