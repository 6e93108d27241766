// Package manifest loads CUE manifests declaring the expected shape of
// registered types and verifies a registry against them.
//
// A manifest lists types under the top-level "type" field:
//
//	type: "demo.Counter": {
//		constructors: [[], ["int"]]
//		destructor:   true
//		properties: value: "int"
//		methods: add: {params: ["int"], returns: "int"}
//		casts: int: ["convert", "any"]
//	}
//
// Everything a manifest declares must be present in the registry with the
// same types. Members the manifest omits are not checked.
package manifest
