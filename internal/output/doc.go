// Package output serializes reports and writes them to their destination.
//
//   - Serialization (serializer.go): JSON and YAML with an optional
//     "Version" header line, and text tables for tabular reports.
//
//   - Registry (registry.go): format names mapped to serializers, so
//     commands can offer a --format flag.
//
//   - Writers (writer.go): pluggable destinations via the [Writer]
//     interface, with [StdoutWriter] and [FileWriter] implementations.
package output
