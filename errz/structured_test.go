package errz

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  KindedError
		kind ErrorKind
		want string
	}{
		{"symbol", &SymbolError{Symbol: "k1"}, ErrSymbol, `symbol error: undefined symbol "k1"`},
		{"function", &UnsupportedFunctionError{Function: "sin"}, ErrUnsupportedFunction,
			`unsupported function: "sin" (supported: abs, log, exp)`},
		{"validation", Validationf(3, "stack underflow"), ErrCodeValidation,
			"code validation error: stack underflow (offset 3)"},
		{"validation no offset", Validationf(-1, "final stack height %d", 2), ErrCodeValidation,
			"code validation error: final stack height 2"},
		{"state", Statef("already finalized"), ErrState, "state error: already finalized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
			require.Equal(t, tt.kind, tt.err.Kind())
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("output 3: %w", &SymbolError{Symbol: "x"})
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, ErrSymbol, kind)
	require.True(t, IsKind(err, ErrSymbol))
	require.False(t, IsKind(err, ErrState))

	_, ok = KindOf(fmt.Errorf("plain"))
	require.False(t, ok)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "state error", ErrState.String())
	require.Equal(t, "error", ErrorKind(99).String())
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		target     string
		candidates []string
		want       []string
	}{
		{"alpah", []string{"alpha", "beta", "gamma"}, []string{"alpha"}},
		{"ecp", []string{"abs", "exp", "log"}, []string{"exp"}},
		{"x", []string{"x", "y", "z", "xx", "xyz"}, []string{"xx", "y", "z"}},
		{"LOG", []string{"log"}, []string{"log"}},
		{"velocity", []string{"x", "y"}, nil},
		{"", []string{"x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got := Suggest(tt.target, tt.candidates)
			if tt.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
	require.Equal(t, 3, editDistance("kitten", "sitting"))
	require.Equal(t, 0, editDistance("", ""))
}

func TestSuggestionMessages(t *testing.T) {
	require.Equal(t, `symbol error: undefined symbol "bta" (did you mean "beta"?)`,
		UndefinedSymbol("bta", []string{"alpha", "beta"}).Error())
	require.Equal(t, `symbol error: undefined symbol "k" (did you mean one of "k1", "k2"?)`,
		UndefinedSymbol("k", []string{"k1", "k2"}).Error())
	require.Equal(t, `unsupported function: "lg" (did you mean "log"?)`,
		(&UnsupportedFunctionError{Function: "lg", Suggestions: []string{"log"}}).Error())
}
