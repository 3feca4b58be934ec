// Package app wires the runtime together: it builds the type system, the
// transformer catalog, the component directory and the execution engine,
// loads a flow file and runs it. It is decoupled from any specific
// entrypoint like a CLI or server.
package app
