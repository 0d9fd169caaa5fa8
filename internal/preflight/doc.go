// Package preflight provides readiness checks for the paths and external
// tools Mintada depends on.
//
// The CLI "mintada status" command runs RunAll and prints one row per check.
// Lifecycle commands do not depend on these checks; they fail on their own
// when a path is unusable. The swap worker check is skipped when the
// detector is disabled.
package preflight
