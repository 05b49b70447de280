// Package schema defines the HCL shapes of declaration files. These structs
// exist only for gohcl decoding; the loader translates them into the
// format-agnostic config model.
package schema
