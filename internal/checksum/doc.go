// Package checksum computes content digests of files while they stream.
//
// A Writer is handed to the facade as the sink of a stream, so a digest
// never needs the whole file in memory:
//
//	w, _ := checksum.NewWriter(checksum.SHA256)
//	if _, err := fsys.StreamTo(ctx, "s3://bucket/key", w, 0); err != nil {
//	    return err
//	}
//	fmt.Println(w.Digest())
//
// # Algorithms
//
//   - sha256: SHA-256 of the raw bytes
//   - crc32c: CRC-32 with the Castagnoli polynomial, the per-chunk checksum of
//     distributed filesystems and S3
//
// # Thread Safety
//
// A Writer is not safe for concurrent use. Algorithm values are.
package checksum
