// Package fileops performs the filesystem side of sample curation: unique
// image names, moves into a coin's bkp/ directory, timestamped document
// backups, and verified copies. Every mutation tolerates being repeated after
// a partial failure: a missing source whose destination already exists is
// treated as done.
package fileops
