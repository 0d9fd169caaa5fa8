// Package lifecycle applies curation commands to a coin's samples: split,
// promote, swap, transfer, choose-best, delete and mark.
//
// Every command follows the same sequence. Preconditions are checked before
// anything is mutated. The store is updated first and is authoritative; the
// coin's HTML page and image files follow, and failures there are reported as
// warnings on the Result instead of aborting. The coin is then reloaded from
// the store. Commands on the same coin are serialized in-process and across
// processes through a lock file.
package lifecycle
