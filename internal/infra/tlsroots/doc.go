// Package tlsroots builds the trusted root pool used by the REST backend
// client: the system roots plus an optional PEM CA bundle, for backends
// behind a private or self-signed certificate authority.
package tlsroots
