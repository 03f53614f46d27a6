// Package fasta reads sequence records from FASTA files.
//
// Inputs may be plain, gzip, zstd or lz4 framed; the format is sniffed from
// the first bytes. A Pool reads several files concurrently and hands out
// complete batches over a bounded channel, so the consumer never sees a
// partial record.
package fasta
