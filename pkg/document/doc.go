/*
Package document converts dialogue documents to and from their persisted form.

The logical schema (File) is shared by every format: JSON and YAML can be read
and written, HCL is accepted as an authoring format. Conditions and actions are
stored as tagged specs and rebuilt through the registries, so a document
exported and imported again keeps its node, connection and variable counts and
all of its GUIDs.
*/
package document
