package core

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		require.NotEmpty(t, id, "empty ID at iteration %d", i)
		require.False(t, ids[id], "duplicate ID: %s", id)
		ids[id] = true
	}
	assert.Len(t, ids, numIDs)
}

func TestNewSessionIDIsVersion7(t *testing.T) {
	id := NewSessionID()
	parsed, err := uuid.Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestParseSessionID(t *testing.T) {
	valid := NewSessionID().String()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", valid, false},
		{"padded", "  " + valid + " ", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"not a uuid", "session-123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseSessionID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valid, id.String())
		})
	}
}

func TestFingerprintStreamsSHA256(t *testing.T) {
	data := []byte("Status,Score\nPass,3\n")

	fp := NewFingerprint()
	_, err := fp.Write(data[:7])
	require.NoError(t, err)
	_, err = fp.Write(data[7:])
	require.NoError(t, err)

	assert.Equal(t, Hash(fmt.Sprintf("%x", sha256.Sum256(data))), fp.Sum())
	assert.Len(t, fp.Sum().String(), 64)
	assert.Equal(t, fp.Sum().String()[:12], fp.Sum().Short())
	assert.True(t, Hash("").IsEmpty())
	assert.True(t, SessionID("").IsEmpty())
}
