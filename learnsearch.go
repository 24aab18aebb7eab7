// Package learnsearch crawls a path-scoped section of a website, stores every
// page as a {url, title, body} document, and makes those documents searchable
// through a hybrid dense + sparse nearest-neighbour index.
//
// This package contains domain types, interfaces and pure functions following
// Ben Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., goquery/,
// qdrant/, sqlite/).
package learnsearch
