package svg

import "go.uber.org/zap"

// RenameToComponents rewrites every vocabulary tag in the tree to its
// capitalized component form, preserving attributes, children and positions.
// The element set is snapshotted before mutation so renaming cannot disturb
// traversal. Namespace-prefixed tags are left alone. Returns the number of
// renamed elements.
func (d *Document) RenameToComponents() int {
	count := 0
	for _, el := range d.Elements() {
		if el.Space != "" {
			continue
		}
		if name, ok := RenamedTag(el.Tag); ok {
			el.Tag = name
			count++
		}
	}
	d.log.Debug("Renamed tags", zap.Int("count", count))
	return count
}
