package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Manifest loading (1000-1999)
	ManInfo          Code = 1000
	ManMissingKey    Code = 1001
	ManDuplicateName Code = 1002
	ManBadType       Code = 1003
	ManBadSignature  Code = 1004
	ManUnknownRecord Code = 1005
	ManBadVersion    Code = 1006
	ManBadField      Code = 1007
	ManBadTarget     Code = 1008

	// Export gate / format version (2000-2999)
	VerMissing     Code = 2001
	VerUnsupported Code = 2002

	// Link stage (3000-3999)
	LnkInfo                Code = 3000
	LnkBadModule           Code = 3001
	LnkObjectGlobalMissing Code = 3002

	// I/O (4000-4999)
	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002

	// Observability (6000-6999)
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	ManInfo:                "Manifest information",
	ManMissingKey:          "Missing required manifest key",
	ManDuplicateName:       "Duplicate export name",
	ManBadType:             "Malformed type expression",
	ManBadSignature:        "Malformed kernel signature",
	ManUnknownRecord:       "Reference to undeclared record type",
	ManBadVersion:          "Malformed format version",
	ManBadField:            "Malformed record field",
	ManBadTarget:           "Unsupported target triple",
	VerMissing:             "Missing version pragma",
	VerUnsupported:         "Unsupported format version",
	LnkInfo:                "Link information",
	LnkBadModule:           "Compiled module is not valid IR",
	LnkObjectGlobalMissing: "Exported object variable has no global in the compiled module",
	IOLoadFileError:        "I/O load file error",
	IOWriteFileError:       "I/O write file error",
	ObsInfo:                "Observability information",
	ObsTimings:             "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("MAN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("VER%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LNK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
