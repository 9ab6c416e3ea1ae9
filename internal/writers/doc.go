// Package writers holds the low-level output plumbing shared by the spool,
// the reporter, and the run report.
//
//   - AtomicFile: write to a temp file in the destination directory, fsync,
//     then rename over the final name. Readers never see a partial file.
//   - IsBrokenPipe: lets the shell treat a closed stdout as success.
package writers
