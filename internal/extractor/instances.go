package extractor

import "svinv/internal/syntax"

// ResolveInstances expands a module's instantiation statements into
// individual instance records, in source order, left to right within each
// statement. The result is non-nil even when the module instantiates
// nothing.
func ResolveInstances(m *syntax.ModuleDecl) []Instance {
	instances := []Instance{}
	for _, item := range m.Items {
		inst, ok := item.(*syntax.InstItem)
		if !ok {
			continue
		}
		for _, named := range inst.Instances {
			instances = append(instances, Instance{
				ModuleName:   inst.ModuleName,
				InstanceName: named.Name,
			})
		}
	}
	return instances
}
