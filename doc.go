// Package saidx builds and queries suffix array indexes over transcript sets.
//
// An index stores every transcript of one or more FASTA files in a single
// text, each followed by a '$' sentinel, together with its suffix array, a
// bit vector marking the last residue of each transcript and a table mapping
// every k-mer to the run of suffixes it starts. Exact substring queries are
// two binary searches; queries of at least k bases are seeded by the k-mer
// table first.
//
// # Quick Start
//
// Build an index on disk:
//
//	cfg := saidx.DefaultBuildConfig()
//	cfg.Inputs = []string{"transcripts.fa.gz"}
//	cfg.Output = "./index"
//	stats, err := saidx.Build(ctx, cfg, saidx.WithLogLevel(slog.LevelInfo))
//
// Query it:
//
//	ix, err := saidx.OpenDir(ctx, "./index")
//	defer ix.Close()
//	m, _ := ix.Find(ctx, []byte("ACGTACGTTTGACCA"))
//	for hit := range ix.Hits(m) {
//	    fmt.Println(hit.Name, hit.Position)
//	}
//
// # Layout
//
// An index is a set of blobs in a blobstore.BlobStore:
//
//	sa.bin          suffix array (32-bit offsets, 64-bit for texts past 2^31-1 bytes)
//	rsd.bin         sequence boundary bit vector
//	txpInfo.bin     names, start offsets and the concatenated text
//	hash.bin        dense k-mer table, or
//	hash_info.bin   perfect hash entries and
//	hash_info.mph   the minimal perfect hash function
//	header.json     k, offset width, table type; written last
//
// Each binary artifact has a fixed header and a CRC32C footer. Because
// header.json is written only after all other artifacts, a directory
// without it is an aborted build and Open rejects it with ErrIndexIncomplete.
//
// # Remote stores
//
// Build into or publish to object storage:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("indexes/gencode/"))
//	_, err := saidx.Publish(ctx, local, s3Store, saidx.WithIOLimit(64<<20))
//	ix, err := saidx.Open(ctx, s3Store)
package saidx
