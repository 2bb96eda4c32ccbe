// Package output renders the inventory in the shape downstream
// hierarchy-construction tools consume. The key names and nesting are a
// contract; empty ports/insts render as [], never omitted.
package output

import "svinv/internal/extractor"

// Inventory is the rendered form of one run over all input files, in
// command-line order.
type Inventory struct {
	Files []FileInventory `yaml:"files" json:"files"`
}

// FileInventory holds the module definitions of one input file.
type FileInventory struct {
	FileName string      `yaml:"file_name" json:"file_name"`
	Defs     []ModuleDef `yaml:"defs" json:"defs"`
}

// ModuleDef is one module definition.
type ModuleDef struct {
	ModName string    `yaml:"mod_name" json:"mod_name"`
	Ports   []PortDef `yaml:"ports" json:"ports"`
	Insts   []InstDef `yaml:"insts" json:"insts"`
}

// PortDef is one resolved port.
type PortDef struct {
	PortName  string `yaml:"port_name" json:"port_name"`
	PortDir   string `yaml:"port_dir" json:"port_dir"`
	PortWidth int    `yaml:"port_width" json:"port_width"`
}

// InstDef is one module instantiation.
type InstDef struct {
	ModName  string `yaml:"mod_name" json:"mod_name"`
	InstName string `yaml:"inst_name" json:"inst_name"`
}

// FileFromModules converts one file's collected modules into the rendered
// form, preserving order and keeping empty collections non-nil.
func FileFromModules(fileName string, modules []extractor.Module) FileInventory {
	defs := make([]ModuleDef, 0, len(modules))
	for _, m := range modules {
		def := ModuleDef{
			ModName: m.Name,
			Ports:   make([]PortDef, 0, len(m.Ports)),
			Insts:   make([]InstDef, 0, len(m.Instances)),
		}
		for _, p := range m.Ports {
			def.Ports = append(def.Ports, PortDef{
				PortName:  p.Name,
				PortDir:   string(p.Direction),
				PortWidth: p.Width,
			})
		}
		for _, inst := range m.Instances {
			def.Insts = append(def.Insts, InstDef{
				ModName:  inst.ModuleName,
				InstName: inst.InstanceName,
			})
		}
		defs = append(defs, def)
	}
	return FileInventory{FileName: fileName, Defs: defs}
}
