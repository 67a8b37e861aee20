// Package utils provides common file helpers for the table-manager application.
// It covers atomic writes, JSON documents and tree copies shared by the build,
// pack and snapshot workflows.
package utils
