// Package minio stores saidx indexes in MinIO or another S3-compatible
// object store (Ceph, Garage, SeaweedFS) without the AWS SDK.
//
//	store, err := minio.Dial(minio.ConfigFromEnv("localhost:9000", "indexes", "gencode/"))
//	if err != nil { ... }
//	stats, err := saidx.Build(ctx, cfg, saidx.WithStore(store))
//	ix, err := saidx.Open(ctx, store)
//
// Artifacts are streamed with a single multipart PutObject each. header.json
// is uploaded last by the builder, so a bucket with a partial build is never
// openable. Objects carry a saidx-artifact metadata entry naming the file.
package minio
