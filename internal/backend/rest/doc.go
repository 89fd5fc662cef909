// Package rest implements backend.Backend over HTTP against a
// GoTrue/PostgREST compatible service such as Supabase.
//
// Endpoints used:
//
//	GET    /auth/v1/health
//	POST   /auth/v1/signup
//	POST   /auth/v1/token?grant_type=password
//	POST   /auth/v1/token?grant_type=refresh_token
//	POST   /auth/v1/logout
//	POST   /auth/v1/recover
//	GET    /rest/v1/<table>?<col>=eq.<v>&order=<col>.desc
//	POST   /rest/v1/<table>?on_conflict=<col>
//	DELETE /rest/v1/<table>?<col>=eq.<v>
//
// Every request carries the project API key in the "apikey" header and
// the session access token (or the API key when signed out) as a bearer
// token. Transport failures and gateway errors (502, 503, 504) are reported
// as backend.ErrUnreachable; all other non-2xx replies become *backend.Error.
package rest
