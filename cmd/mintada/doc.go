// Command mintada curates the coin sample catalog from the command line:
// browsing issuers and coins, running the sample lifecycle commands,
// maintaining ruler associations and inspecting images.
//
// Rejected commands exit with status 2, other failures with status 1.
package main
