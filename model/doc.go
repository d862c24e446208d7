// Package model holds the client-side document model: field values, keys and
// paths, documents, mutations and queries. Everything here is a plain value;
// the wire codec lives in the parent package.
package model
