// Package cli is the interactive terminal client of safecheck.
//
// It renders the engine's phases and forwards user commands to it; it holds
// no engine state of its own. The REPL prompt always shows the current phase
// and, once armed, the time left until the next check-in.
//
// Commands:
//
//	help                 list commands for the current phase
//	start                leave the welcome screen
//	identity             enter your name, phone and email
//	contacts             enter emergency contacts
//	import <file>        load contacts from .csv or .xlsx
//	import --template <file>
//	                     write an empty .xlsx contact sheet
//	period               choose the check-in interval and arm
//	checkin              check in now
//	dismiss              dismiss a fired alert (same as checkin)
//	status               show the countdown
//	settings             change contacts and interval while armed
//	reset                erase everything
//	exit | quit          leave
//
// The App is started via App.Run(ctx), which blocks until the user exits.
package cli
