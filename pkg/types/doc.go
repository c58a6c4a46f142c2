// Package types defines the entity types, store interfaces, and standard
// errors shared by the marquee catalog packages.
//
// Users and movies are plain value types. Persistence goes through the
// UserStore and MovieStore interfaces, which a Backend hands out once it is
// attached to a database.
package types
