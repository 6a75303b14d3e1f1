// Package secrets loads service credentials from HashiCorp Vault.
//
// Credentials passed as flags or environment variables take precedence; the
// Vault secret only fills what is missing.
package secrets
