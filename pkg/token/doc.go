// Package token generates opaque credentials and hashes passwords.
//
// Access tokens are "sttk_" followed by 43 characters of Base64 RawURL
// encoded random bytes; refresh tokens use the "strt_" prefix. Only the
// SHA-256 hash of a token needs to be kept server side.
//
// Passwords are hashed with Argon2id and encoded as
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
package token
