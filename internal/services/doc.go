// Package services defines shared utilities consumed by the curation engine
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp coin and issuer IDs, operation names, and
//     request identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     rejected command from a transient failure or a consistency hazard.
//
// Subpackages hold clients for external processes such as the swap detector.
package services
