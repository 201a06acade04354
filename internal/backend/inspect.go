package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"

	"emberlink/internal/abi"
)

// ChannelRows decodes the rows of one named metadata channel. It returns nil
// when the module does not carry the channel; a channel that exists but has
// no rows decodes to an empty, non-nil slice.
func ChannelRows(m *ir.Module, name string) [][]string {
	def, ok := m.NamedMetadataDefs[name]
	if !ok {
		return nil
	}
	rows := make([][]string, 0, len(def.Nodes))
	for _, node := range def.Nodes {
		tuple, ok := node.(*metadata.Tuple)
		if !ok {
			continue
		}
		row := make([]string, 0, len(tuple.Fields))
		for _, field := range tuple.Fields {
			if str, ok := field.(*metadata.String); ok {
				row = append(row, str.Value)
				continue
			}
			row = append(row, fmt.Sprintf("%v", field))
		}
		rows = append(rows, row)
	}
	return rows
}

// RecordChannels returns the record types that carry a field channel in m,
// sorted by name.
func RecordChannels(m *ir.Module) []string {
	var names []string
	for name := range m.NamedMetadataDefs {
		if strings.HasPrefix(name, abi.RecordChannelPrefix) {
			names = append(names, strings.TrimPrefix(name, abi.RecordChannelPrefix))
		}
	}
	sort.Strings(names)
	return names
}
