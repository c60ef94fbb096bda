// Package models contains the GORM persistence models. Domain types carry no
// ORM tags; each model converts with ToDomain and FromDomain.
//
// Slices and maps are stored as JSON text so the same models work on
// postgres (jsonb) and on sqlite in tests.
package models
