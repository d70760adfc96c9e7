// Package registry maps the stable type tags of conditions and actions to
// their decoders, so documents can be serialized without reflection.
// New kinds are added by registering a decoder and implementing Encodable.
package registry
