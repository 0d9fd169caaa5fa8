// Package swapdetect talks to the external obverse/reverse classifier.
//
// The classifier runs as one long-lived worker process speaking one JSON
// object per line over stdin/stdout. It announces itself with a literal
// READY line. Requests are serialized through a single-slot semaphore and
// answers are cached per path tuple. Any startup failure, timeout, crash or
// unparseable answer reports "no swap" to the caller and the worker is
// restarted on the next request.
package swapdetect
