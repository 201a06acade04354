package layout

// Target describes the ABI target triple and its pointer properties. It must
// agree with the datalayout the front end compiled the unit against, or the
// offsets computed here drift from what the code generator actually laid out.
type Target struct {
	Triple   string // e.g. "x86_64-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:   "x86_64-linux-gnu",
		PtrSize:  8,
		PtrAlign: 8,
	}
}
