package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/errors"
)

func TestKeyString(t *testing.T) {
	key := Key{NodeTypeID: "atomic.echo", Version: "1.0.0"}
	assert.Equal(t, "atomic.echo@1.0.0", key.String())
}

func TestNodeTypeValidate(t *testing.T) {
	tests := []struct {
		name      string
		nodeType  NodeType
		wantError bool
	}{
		{
			name:     "valid",
			nodeType: NodeType{NodeTypeID: "atomic.echo", Version: "1.0.0", Kind: KindAtomic},
		},
		{
			name:      "missing id",
			nodeType:  NodeType{Version: "1.0.0"},
			wantError: true,
		},
		{
			name:      "missing version",
			nodeType:  NodeType{NodeTypeID: "atomic.echo"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nodeType.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsInvalid(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNodeTypeJSONShape(t *testing.T) {
	nt := NodeType{
		NodeTypeID:  "atomic.echo",
		Version:     "1.0.0",
		Kind:        KindAtomic,
		Name:        "Echo",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Metadata:    map[string]string{"owner": "platform"},
	}

	data, err := json.Marshal(nt)
	require.NoError(t, err)

	// Wire field names follow the registry API contract
	assert.Contains(t, string(data), `"node_type_id":"atomic.echo"`)
	assert.Contains(t, string(data), `"version":"1.0.0"`)
	assert.Contains(t, string(data), `"kind":"atomic"`)

	var back NodeType
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, nt, back)
}

func TestFilterMatches(t *testing.T) {
	nt := NodeType{NodeTypeID: "atomic.echo", Version: "1.0.0", Kind: KindAtomic, Name: "Echo"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"kind match", Filter{Kind: KindAtomic}, true},
		{"kind mismatch", Filter{Kind: KindComposite}, false},
		{"q matches id", Filter{Q: "echo"}, true},
		{"q matches name", Filter{Q: "Echo"}, true},
		{"q case sensitive", Filter{Q: "ECHO"}, false},
		{"q no match", Filter{Q: "transform"}, false},
		{"q and kind both required", Filter{Q: "echo", Kind: KindComposite}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(nt))
		})
	}
}
