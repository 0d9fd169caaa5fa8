// Package catalog holds the domain model shared by the curation engine: coin
// types and their image samples, issuers arranged as an arena-backed tree,
// ruler rows with their association state, and the on-disk layout that maps
// a coin to its image directory and HTML document.
//
// Types here carry no persistence or I/O behaviour beyond path arithmetic;
// the store, lifecycle, and rulers packages operate on them.
package catalog
