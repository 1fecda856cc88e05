// Package schema defines the career data entities stored in the shared
// database: job postings, skills, experiences, and applications.
//
// These are plain structs with validation; persistence lives in the db
// package, and all access to the shared database goes through the session
// package so the snapshot stays consistent across automation runs.
package schema
