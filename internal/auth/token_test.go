package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenAlphabet = regexp.MustCompile(`^[0-9a-v]+$`)

func TestNewToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		tok := NewToken()
		assert.Regexp(t, tokenAlphabet, tok)
		assert.GreaterOrEqual(t, len(tok), 9)
		seen[tok] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestNewTokenExcept(t *testing.T) {
	current := NewToken()
	for i := 0; i < 100; i++ {
		tok, err := NewTokenExcept(current)
		require.NoError(t, err)
		assert.NotEqual(t, current, tok)
	}

	tok, err := NewTokenExcept("")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestTokenFunc_Except(t *testing.T) {
	tests := []struct {
		name      string
		seq       []string
		current   string
		want      string
		wantErr   error
		wantCalls int
	}{
		{name: "skips repeats", seq: []string{"a", "a", "b"}, current: "a", want: "b", wantCalls: 3},
		{name: "first draw differs", seq: []string{"b"}, current: "a", want: "b", wantCalls: 1},
		{name: "source stuck on current", seq: []string{"a"}, current: "a", wantErr: ErrTokenExhausted, wantCalls: maxTokenAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			next := TokenFunc(func() string {
				tok := tt.seq[min(calls, len(tt.seq)-1)]
				calls++
				return tok
			})

			got, err := next.Except(tt.current)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}
