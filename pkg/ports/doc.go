/*
Package ports defines the driven ports (interfaces) for the parley engine.

These interfaces decouple the traversal core from external implementations,
allowing the engine to work with various storage backends, document sources
and presentation layers.

# Key Interfaces

  - DocumentLoader: resolves dialogue documents by ID (memory, loam directory).
  - BlackboardStore: persists the runtime blackboard of each document.
  - DistributedLocker: coordinates access to a runtime blackboard across replicas.
  - Presenter: shows speech and options and reports back through callbacks.
  - Engine: the step/resume surface consumed by transport adapters (HTTP, MCP).
*/
package ports
