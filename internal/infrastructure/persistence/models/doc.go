// Package models contains the GORM persistence models behind the invoicing
// repositories. Domain entities stay free of ORM tags; every model converts
// to and from its entity with ToDomain and FromDomain.
//
// The schema itself is owned by the SQL migrations; AutoMigrate over these
// models is only used for SQLite test and development databases.
package models
