/*
Package domain contains the core models of the parley dialogue engine.

It defines the authored graph (Nodes, Connections, the Document that owns them),
the typed variable store (Blackboard) and the polymorphic Conditions and Actions
that read and mutate it. The package is kept free of I/O, persistence and
logging, following Hexagonal Architecture principles: functions report problems
as errors and the caller decides whether to log them.

# Key Entities

  - Blackboard: named, typed variables stored in canonical string form.
  - Condition / Action: predicates over and mutations of a Blackboard.
  - Node: Root, Speech, Option or Branch, each with fixed port counts.
  - Connection: directed, optionally guarded edge between node ports.
  - Document: the authored unit, an arena of nodes keyed by GUID.
  - Step / Input: the suspend/resume contract of the traversal engine.
*/
package domain
