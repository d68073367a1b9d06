// Package ime is the frontend-facing side of vietime.
//
// # Engine
//
// Engine is the keystroke facade every frontend drives. Each call takes one
// key code with its modifiers and returns a Result:
//
//	Key Event → Engine.ProcessKeyExt → {action, backspace, chars}
//
// A None result lets the key through to the application unchanged. Send
// and Restore results ask the frontend to delete Backspace graphemes
// before the caret and insert Chars; the key itself is consumed. The
// engine never panics: a fault drops the word in progress and yields a
// None result.
//
// # Screen
//
// Screen applies results to a simulated line the way a host application
// does. Tests and the CLI use it to turn a string of keystrokes into the
// text a user would see.
//
// # IBus
//
// On Linux, IBusServer exports a Factory on the IBus bus and creates one
// IBusEngine per input context. Key events arrive as ProcessKeyEvent
// calls with X11 keysyms; edits leave as CommitText signals, preceded by
// DeleteSurroundingText when the client supports surrounding text or by
// forwarded BackSpace key events when it does not. IBus counts deletions
// in code points, so each engine mirrors the text it has seen typed to
// convert grapheme counts. Password and PIN fields bypass the engine.
//
// # Sources
//
// LoadSources merges shortcuts and foreign words from the database, JSON
// and word-list files and the config file. Sources.Seed copies them into
// a new engine.
//
// # Platform
//
// Platform registers the input method with the desktop. The Linux
// implementation writes an IBus component XML pointing at vietime-ibus.
package ime
