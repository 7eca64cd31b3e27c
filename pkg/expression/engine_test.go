package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_Evaluate(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name     string
		expr     string
		env      map[string]interface{}
		expected interface{}
		wantErr  bool
	}{
		{
			name:     "Simple Math",
			expr:     "1 + 1",
			env:      nil,
			expected: 2,
		},
		{
			name:     "Answer Comparison",
			expr:     "company_size == 'enterprise'",
			env:      map[string]interface{}{"company_size": "enterprise"},
			expected: true,
		},
		{
			name:     "Undefined Alias Is Nil",
			expr:     "company_size == 'enterprise'",
			env:      map[string]interface{}{},
			expected: false,
		},
		{
			name:     "Ternary",
			expr:     "revenue > 50 ? 'large' : 'small'",
			env:      map[string]interface{}{"revenue": 80},
			expected: "large",
		},
		{
			name:     "LEN On String",
			expr:     "LEN(name)",
			env:      map[string]interface{}{"name": "Acme"},
			expected: 4,
		},
		{
			name:     "LEN On List",
			expr:     "LEN(regions)",
			env:      map[string]interface{}{"regions": []interface{}{"eu", "us"}},
			expected: 2,
		},
		{
			name:     "ANSWERED Empty String",
			expr:     "ANSWERED(vat_number)",
			env:      map[string]interface{}{"vat_number": ""},
			expected: false,
		},
		{
			name:     "ANSWERED Missing Alias",
			expr:     "ANSWERED(vat_number)",
			env:      map[string]interface{}{},
			expected: false,
		},
		{
			name:     "INCLUDES Match",
			expr:     "INCLUDES(regions, 'eu')",
			env:      map[string]interface{}{"regions": []interface{}{"eu", "apac"}},
			expected: true,
		},
		{
			name:     "INCLUDES No Match",
			expr:     "INCLUDES(regions, 'us')",
			env:      map[string]interface{}{"regions": []interface{}{"eu"}},
			expected: false,
		},
		{
			name:     "INCLUDES Nil List",
			expr:     "INCLUDES(regions, 'us')",
			env:      map[string]interface{}{},
			expected: false,
		},
		{
			name:    "Syntax Error",
			expr:    "1 +",
			env:     nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Evaluate(tt.expr, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEngine_EvaluateBool(t *testing.T) {
	e := NewEngine()

	ok, err := e.EvaluateBool("status == 'active'", map[string]interface{}{"status": "active"})
	assert.NoError(t, err)
	assert.True(t, ok)

	// Non-boolean result is rejected
	_, err = e.EvaluateBool("1 + 1", nil)
	assert.Error(t, err)
}

func TestEngine_ProgramCache(t *testing.T) {
	e := NewEngine()

	// Same expression against different environments must not recompile
	// into a stale binding.
	out, err := e.Evaluate("tier == 'gold'", map[string]interface{}{"tier": "gold"})
	assert.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = e.Evaluate("tier == 'gold'", map[string]interface{}{"tier": "silver"})
	assert.NoError(t, err)
	assert.Equal(t, false, out)

	assert.Len(t, e.programCache, 1)
}

func TestEngine_Validate(t *testing.T) {
	e := NewEngine()

	assert.NoError(t, e.Validate("company_size in ['smb', 'mid']"))
	assert.Error(t, e.Validate("in in in"))
}
