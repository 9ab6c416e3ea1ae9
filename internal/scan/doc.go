// Package scan makes the single pass over the interaction stream.
//
// Every line is read once. Its IDs are registered in the universe, the
// filter cascade decides whether it survives, and survivors update both
// histograms and (when persistence is on) the spool. After end of input the
// spool is flushed one last time and merged.
//
// States move forward only:
//
//	Idle -> Scanning -> (Flushing -> Scanning)* -> Flushing -> Merging -> Done
//
// Any error moves the scanner to Failed, and the spool is discarded so a
// failed or canceled run leaves no shards behind.
package scan
