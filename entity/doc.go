// Package entity provides a normalized entity store for GraphQL result data.
//
// Every object in a query result that carries a __typename, and whose type
// declares key fields, is stored exactly once under a stable key computed from
// those key fields. Wherever such an object appeared in the result, a
// Reference to the stored record is kept instead. Two payloads that describe
// the same entity therefore merge into a single record, no matter which query
// delivered them.
//
// ## Keys
//
// A key has the form Type:{"field":value} with the key fields listed in their
// declared order and each value JSON-encoded, for example
// Deck:{"slug":"crypto"}. Objects missing any key field, and objects of types
// that declare no key fields, are not normalized. When written directly with
// Merge, such an object is stored under an anonymous key that is never reused.
//
// ## Merging
//
// Writes shallow-merge onto an existing record: fields present in the write
// replace stored values, fields absent from the write are left untouched.
// Nothing in the store is deleted by a write.
//
// ## Reads
//
// Read distinguishes a field that was never written (a miss) from a field that
// was written as null. ReadFragment and Denormalize resolve references through
// the store by lookup only, so reference cycles between entities cannot cause
// unbounded traversal. A reference to an absent record is a miss.
//
// ## Change Notification
//
// Every write that changes a record publishes a Change for that record's key.
// A write that leaves the record as it was publishes nothing.
package entity
