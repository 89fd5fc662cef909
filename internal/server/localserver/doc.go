// Package localserver serves the agent's HTTP API on a Unix domain socket.
//
// Access is controlled by file system permissions: the socket is created
// with mode 0600, so only the agent's user can reach it. A stale socket
// left by a crashed agent is removed before listening; a socket that still
// accepts connections is reported as in use.
package localserver
