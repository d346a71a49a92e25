package app

import (
	"github.com/specialistvlad/leafletmm/internal/registry"
	"github.com/specialistvlad/leafletmm/modules/metamodels"
)

// coreModules is the definitive list of all modules that are compiled into
// the leafletmm binary.
var coreModules = []registry.Module{
	&metamodels.Module{},
}
