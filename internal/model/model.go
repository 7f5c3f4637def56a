// Package model contains domain models shared by the storage, persistence,
// service and HTTP layers. Keep it free of business logic.
package model
