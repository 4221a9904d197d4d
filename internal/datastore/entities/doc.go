// Package entities defines the GORM models of the normalized registry store.
//
// Every migrated row carries the id of the legacy CMS post it came from in
// LegacyEntityID. The column is uniquely indexed and serves as the idempotency
// key of the migration: at most one normalized row exists per legacy post.
// Profiles (shelters and volunteers) additionally carry OwnerIdentityID,
// which stays NULL until the person behind the legacy author logs in and the
// linker claims the profile. That column is uniquely indexed as well, so an
// identity can own at most one profile of each kind.
package entities
