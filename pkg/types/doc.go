// Package types defines the store collaborator contracts, the RowSet change
// model, configuration, and the standard error types shared by the datalus
// core and its storage backends.
package types
