// Package server provides the local HTTP callback used by `curator auth`.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback. It validates the state
// parameter, exchanges the code for tokens and sends the result through a channel. Only the
// first callback is processed.
//
// # Router
//
// [NewRouter] mounts [Handler] implementations on a chi router with panic recovery and
// request logging ([RequestLogger]). The auth command serves it on the configured
// host and port until the callback arrives or the flow times out.
package server
