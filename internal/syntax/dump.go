package syntax

// Dump renders a parsed tree as a plain structure suitable for YAML/JSON
// encoding. It backs the --full-tree flag, which replaces extraction with a
// raw view of what the front-end saw.
func Dump(src *SourceText) []map[string]interface{} {
	modules := make([]map[string]interface{}, 0, len(src.Modules))
	for _, m := range src.Modules {
		modules = append(modules, dumpModule(m))
	}
	return modules
}

func dumpModule(m *ModuleDecl) map[string]interface{} {
	header := make([]map[string]interface{}, 0, len(m.Header))
	for _, e := range m.Header {
		entry := map[string]interface{}{
			"name": e.Name,
			"line": e.Line,
		}
		if e.Dir != nil {
			entry["dir"] = string(*e.Dir)
		}
		if e.DataType != "" {
			entry["type"] = e.DataType
		}
		if e.Range != nil {
			entry["range"] = e.Range.String()
		}
		header = append(header, entry)
	}

	items := make([]map[string]interface{}, 0, len(m.Items))
	for _, item := range m.Items {
		switch it := item.(type) {
		case *PortDeclItem:
			entry := map[string]interface{}{
				"kind":  "port_decl",
				"dir":   string(it.Dir),
				"names": it.Names,
				"line":  it.Line,
			}
			if it.DataType != "" {
				entry["type"] = it.DataType
			}
			if it.Range != nil {
				entry["range"] = it.Range.String()
			}
			items = append(items, entry)
		case *InstItem:
			insts := make([]string, 0, len(it.Instances))
			for _, inst := range it.Instances {
				insts = append(insts, inst.Name)
			}
			items = append(items, map[string]interface{}{
				"kind":      "instantiation",
				"mod_name":  it.ModuleName,
				"instances": insts,
				"line":      it.Line,
			})
		}
	}

	return map[string]interface{}{
		"module": m.Name,
		"line":   m.Line,
		"header": header,
		"items":  items,
	}
}
