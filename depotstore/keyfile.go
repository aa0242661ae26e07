package depotstore

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/andygrunwald/vdf"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
)

// KeyFileName is the per-namespace file holding depot decryption keys.
const KeyFileName = "config.vdf"

// DepotKeys maps depot ids to hex encoded decryption keys.
type DepotKeys map[string]string

// ParseKeyFile reads a config.vdf document of the form
//
//	"depots" { "<depot>" { "DecryptionKey" "<hex>" } }
//
// Empty input yields an empty set.
func ParseKeyFile(data []byte) (DepotKeys, error) {
	keys := DepotKeys{}
	if len(bytes.TrimSpace(data)) == 0 {
		return keys, nil
	}

	doc, err := vdf.NewParser(bytes.NewReader(data)).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", KeyFileName, err)
	}
	depots, ok := doc["depots"].(map[string]interface{})
	if !ok {
		return keys, nil
	}
	for id, v := range depots {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if key, ok := entry["DecryptionKey"].(string); ok && key != "" {
			keys[id] = key
		}
	}
	return keys, nil
}

// Set records key for depot.
func (k DepotKeys) Set(depot domain.DepotID, key []byte) {
	k[depot.String()] = hex.EncodeToString(key)
}

// Encode renders the keys in Valve's indented text format with depots in
// ascending numeric order.
func (k DepotKeys) Encode() []byte {
	ids := make([]string, 0, len(k))
	for id := range k {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})

	var b strings.Builder
	b.WriteString("\"depots\"\n{\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "\t%q\n\t{\n\t\t\"DecryptionKey\"\t\t%q\n\t}\n", id, k[id])
	}
	b.WriteString("}\n")
	return []byte(b.String())
}

// MergeKey adds depot's key to an existing config.vdf document.
func MergeKey(existing []byte, depot domain.DepotID, key []byte) ([]byte, error) {
	keys, err := ParseKeyFile(existing)
	if err != nil {
		return nil, err
	}
	keys.Set(depot, key)
	return keys.Encode(), nil
}
