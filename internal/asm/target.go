package asm

import (
	"fmt"
	"sort"
	"strings"
)

// Target describes the assembler flavour of a platform.
type Target struct {
	// Name is the key used on the command line.
	Name string
	// Platform is the human readable platform written into the banner.
	Platform string
	// SymbolPrefix is prepended to every assembler label (COFF style "_").
	SymbolPrefix string
	// Constructors reports whether the platform runs static constructors from
	// a .ctor section, so the data can fix itself up at startup.
	Constructors bool
}

var targets = map[string]Target{
	"unix":    {Name: "unix", Platform: "Unix"},
	"linux":   {Name: "linux", Platform: "Linux"},
	"qnx":     {Name: "qnx", Platform: "QNX"},
	"beos":    {Name: "beos", Platform: "BeOS"},
	"mingw32": {Name: "mingw32", Platform: "MinGW32", SymbolPrefix: "_"},
	"djgpp":   {Name: "djgpp", Platform: "djgpp", SymbolPrefix: "_", Constructors: true},
}

// DefaultTarget is used when no target is configured.
const DefaultTarget = "unix"

// LookupTarget resolves a target by name, case-insensitively.
func LookupTarget(name string) (Target, error) {
	if name == "" {
		name = DefaultTarget
	}
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return Target{}, fmt.Errorf("unsupported target '%s' (supported: %v)", name, TargetNames())
	}
	return t, nil
}

// TargetNames lists the known targets in sorted order.
func TargetNames() []string {
	names := make([]string, 0, len(targets))
	for k := range targets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
