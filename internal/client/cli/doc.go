// Package cli provides the interactive Prestige Forum client.
//
// NewApp is the composition root: it opens the profile database, builds
// exactly one account store (local or remote, from config), the session
// controller and the wallet link controller, and renders identities with
// their rank and prestige. App.Run restores the persisted session and then
// runs the REPL until the user exits.
//
// Commands:
//   - register / login / logout
//   - whoami, ranks, actions, act <key>, avatar <file>
//   - wallet, connect, disconnect
//   - help, exit
package cli
