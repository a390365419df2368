package pdb

var OldOrMmcif = oldOrMmcif
var OperCount = operCount

const (
	Old_fmt   = oldFmt
	Mmcif_fmt = mmcifFmt
)
