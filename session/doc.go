// Package session keeps one engine and one assistant per conversation.
//
// All sessions of a process share the catalog, the order ledger and the
// tracker that the Factory closes over; only the cart and the dialogue history
// are per session. Sessions are created lazily on first use and may be pruned
// after a period of inactivity.
package session
