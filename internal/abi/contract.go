package abi

// Named metadata channels the host runtime reads from a finalized module.
const (
	VarChannel    = "ember.export.var"    // [name, typeEncoding]
	FuncChannel   = "ember.export.func"   // [name] or [adapterName]
	KernelChannel = "ember.export.kernel" // [signature]
	TypeChannel   = "ember.export.type"   // [recordName]
	SlotChannel   = "ember.object.slots"  // [slotIndex]
	PragmaChannel = "ember.pragma"        // [name, value]

	// RecordChannelPrefix prefixes the per-record field channel; the full
	// name is RecordChannel(recordName).
	RecordChannelPrefix = "ember.record."
)

// Synthesized symbols. The leading dot keeps them out of the user-addressable
// identifier space, so they can never collide with a declaration.
const (
	// AdapterPrefix prefixes the single-pointer invoke trampoline built for
	// every exported function that takes parameters.
	AdapterPrefix = ".helper_"
	// CleanupFunc releases every reference-counted exported global; the host
	// calls it by name when tearing a script down.
	CleanupFunc = ".ember.dtor"
	// ReleaseFunc is the runtime hook CleanupFunc forwards each handle to.
	ReleaseFunc = "emberReleaseObject"
)

// RecordChannel returns the field channel name for an exported record type.
func RecordChannel(name string) string {
	return RecordChannelPrefix + name
}

// AdapterName returns the trampoline symbol for an exported function.
func AdapterName(fn string) string {
	return AdapterPrefix + fn
}

// Format versions accepted by the export gate. Version 0 means the unit never
// declared one; anything above MaxFormatVersion was produced by a newer
// front end than this finalizer understands.
const (
	FormatVersionNone = 0
	FormatVersion1    = 1
	MaxFormatVersion  = FormatVersion1
)
