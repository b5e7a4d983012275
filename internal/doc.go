// Package internal contains the implementation packages of dxcwatch.
//
// # Package Organization
//
//   - filewatch: per-file change flags shared through one native watch per directory
//   - shaderlist: parsing of text, JSON and YAML shaderlists into compile units
//   - includes: transitive #include discovery for a shader source
//   - compiler: the dxc driver producing DXIL and SPIR-V outputs
//   - rebuild: the watch session that recompiles units whose inputs changed
//   - notify: the WebSocket feed of rebuild events
//   - config, logging, errors, validation, version: ambient support
//
// # Data Flow
//
// The rebuild session parses the shaderlist, asks filewatch for a flag on
// every source and include, and polls those flags. A set flag rebuilds the
// unit through the compiler; outcomes are logged and published to notify.
package internal
