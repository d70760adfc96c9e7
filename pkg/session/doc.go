/*
Package session manages the runtime blackboards of dialogue documents.

The first session of a document gets a deep copy of the document's schema;
later sessions of the same document reuse it, so designer-visible state
persists between conversations until it is explicitly cleared. Access is
serialized per document, optionally across replicas through a
ports.DistributedLocker, and every copy is written through to a
ports.BlackboardStore.
*/
package session
