// Package registry pulls in every extension encoder so that importing it
// registers them with the default asm registry.
package registry

import (
	_ "github.com/Alia5/dat2s/internal/plugins/text" // Register the TXT encoder
)
