package xxtea

// CmdKeys is the plotter's fixed table of 8 move/cut keys, indexed by
// subCmd. These constants come from the reference firmware client and
// must be reproduced bit-exact — the device will silently ignore frames
// encrypted under the wrong key for a given subCmd.
var CmdKeys = [8]Key{
	{0x272D6C37, 0x342A6173, 0x3663255B, 0x2B265A4D},
	{0x7D316E22, 0x4A4A7133, 0x5A3C5C5F, 0x78613A61},
	{0x47302A23, 0x5D31482F, 0x3B257A61, 0x3671382F},
	{0x303F6863, 0x71646D30, 0x4769457B, 0x6D342569},
	{0x45356650, 0x3A386D69, 0x575A7037, 0x335F357D},
	{0x343A2148, 0x614F3925, 0x753F6953, 0x47463626},
	{0x3F62626D, 0x7E555F44, 0x7E29425A, 0x52246268},
	{0x47302A23, 0x342A6173, 0x4769457B, 0x335F357D},
}
