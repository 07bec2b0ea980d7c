// Package main provides the entry point of the GreenNest plant storefront.
// It runs a fiber web service that lets visitors browse the plant catalog,
// sign up and sign in with email and password or Google, maintain their
// profile and book care consultations. Accounts and sign-in state are
// persisted with gorm in sqlite, MySQL or PostgreSQL.
package main
