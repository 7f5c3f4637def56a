// Package repository contains data access layer abstractions for document metadata.
// Implementations live in subpackages: postgres for deployments, memory for local runs and tests.
package repository
