// Package document edits a coin's derived HTML page (coin_type.html) so it
// keeps pointing at the right image files after lifecycle operations.
//
// Text edits work on the raw markup and leave everything they do not touch
// byte-for-byte intact. Promote needs structural edits and goes through a
// parsed tree instead. All edits report whether anything changed; a page that
// does not mention an image is left alone.
package document
