package app

import (
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/modules/arith"
	"github.com/vk/flowgrid/modules/constant"
	"github.com/vk/flowgrid/modules/httpfetch"
	"github.com/vk/flowgrid/modules/printer"
)

// coreModules is the definitive list of all component modules that are
// compiled into the flowgrid binary.
var coreModules = []registry.Module{
	&constant.Module{},
	&arith.Module{},
	&printer.Module{},
	&httpfetch.Module{},
}
