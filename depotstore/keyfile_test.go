package depotstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyFile(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DepotKeys
	}{
		{name: "empty", in: "", want: DepotKeys{}},
		{name: "whitespace", in: " \n\t", want: DepotKeys{}},
		{
			name: "two depots",
			in:   "\"depots\"\n{\n\t\"731\"\n\t{\n\t\t\"DecryptionKey\"\t\t\"aa01\"\n\t}\n\t\"732\"\n\t{\n\t\t\"DecryptionKey\"\t\t\"bb02\"\n\t}\n}\n",
			want: DepotKeys{"731": "aa01", "732": "bb02"},
		},
		{
			name: "entries without key are skipped",
			in:   "\"depots\"\n{\n\t\"731\"\n\t{\n\t\t\"Other\"\t\t\"x\"\n\t}\n}\n",
			want: DepotKeys{},
		},
		{name: "no depots section", in: "\"other\"\n{\n}\n", want: DepotKeys{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeyFile([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeOrdersDepotsNumerically(t *testing.T) {
	keys := DepotKeys{"1000": "cc", "99": "bb", "731": "aa"}
	want := "\"depots\"\n{\n" +
		"\t\"99\"\n\t{\n\t\t\"DecryptionKey\"\t\t\"bb\"\n\t}\n" +
		"\t\"731\"\n\t{\n\t\t\"DecryptionKey\"\t\t\"aa\"\n\t}\n" +
		"\t\"1000\"\n\t{\n\t\t\"DecryptionKey\"\t\t\"cc\"\n\t}\n" +
		"}\n"
	assert.Equal(t, want, string(keys.Encode()))

	parsed, err := ParseKeyFile(keys.Encode())
	require.NoError(t, err)
	assert.Equal(t, keys, parsed)
}

func TestMergeKey(t *testing.T) {
	first, err := MergeKey(nil, 731, []byte{0xde, 0xad})
	require.NoError(t, err)

	second, err := MergeKey(first, 732, []byte{0xbe, 0xef})
	require.NoError(t, err)

	replaced, err := MergeKey(second, 731, []byte{0x01})
	require.NoError(t, err)

	keys, err := ParseKeyFile(replaced)
	require.NoError(t, err)
	assert.Equal(t, DepotKeys{"731": "01", "732": "beef"}, keys)
}
