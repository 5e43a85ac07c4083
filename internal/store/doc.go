// Package store declares the relational records written by the pipeline
// (projects, file-tree rows and translations) and the Store contract that
// persists them.
package store
