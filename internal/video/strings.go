package video

// stringTable is the immutable id -> text lookup DrawString uses. The
// original interpreter embeds the full shipped English string table
// compiled into the binary; this engine carries none of that licensed
// game text (see Non-goals: shipping assets / new game content) and
// instead maps the handful of ids the VM's non-content opcodes (status
// messages, the password-entry prompt) need to drive in a scripted test,
// plus a deterministic placeholder for anything else so lookups never
// silently draw garbage.
var stringTable = map[uint16]string{
	0x0001: "",
	0x00C9: "ENTER PASSWORD",
	0x00CA: "PASSWORD INCORRECT",
}
