// Package secrets stores third-party credentials per tenant.
//
// Tokens are encrypted before they are written and decrypted on read; the
// datastore only ever sees ciphertext. The secret name is the document key,
// so saving under an existing name replaces the previous secret.
package secrets
