package filter_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/utils"
)

var testWhitelist = filter.Whitelist{"age": "t.age", "city": "t.city", "name": "t.name"}

func TestParse_Example(t *testing.T) {
	got, appErr := filter.Parse("age:>:18,city:=:Reno", filter.Whitelist{"age": "t.age", "city": "t.city"})
	require.Nil(t, appErr)

	want := filter.Descriptor{
		"t.age":  {Operators: []string{">"}, Values: []interface{}{"18"}},
		"t.city": {Operators: []string{"="}, Values: []interface{}{"Reno"}},
	}
	assert.Equal(t, want, got)
}

func TestParse_Null(t *testing.T) {
	_, appErr := filter.Parse("name:=:null", testWhitelist)
	require.NotNil(t, appErr)
	assert.Equal(t, "Mismatched null, =", appErr.Message)

	got, appErr := filter.Parse("name:IS:null", testWhitelist)
	require.Nil(t, appErr)
	assert.Equal(t, []string{"IS"}, got["t.name"].Operators)
	assert.Equal(t, []interface{}{nil}, got["t.name"].Values)

	got, appErr = filter.Parse("name:is not:NULL", testWhitelist)
	require.Nil(t, appErr)
	assert.Equal(t, []string{"IS NOT"}, got["t.name"].Operators)
	assert.Nil(t, got["t.name"].Values[0])
}

func TestParse_MultipleClausesSameColumn(t *testing.T) {
	got, appErr := filter.Parse("age:>=:18, AGE : < : 65", testWhitelist)
	require.Nil(t, appErr)

	assert.Equal(t, &filter.Condition{
		Operators: []string{">=", "<"},
		Values:    []interface{}{"18", "65"},
	}, got["t.age"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		message string
	}{
		{"Empty", "", "Not Entered"},
		{"Blank first clause", "  ,age:=:1", "Not Entered"},
		{"Too few parts", "age:18", "Malformed"},
		{"Too many parts", "created:=:12:30", "Malformed"},
		{"Trailing comma", "age:=:1,", "Malformed"},
		{"Unknown column", "zip:=:89501", "zip column not found"},
		{"Unknown operator", "age:<>:1", "Invalid Operator <>"},
		{"Null with LIKE", "name:like:null", "Mismatched null, LIKE"},
		{"IS with value", "name:IS:bob", "IS requires null, true or false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, appErr := filter.Parse(tt.text, testWhitelist)

			assert.Nil(t, got)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, "filter", appErr.Field)
			assert.True(t, utils.IsValidationError(appErr))
		})
	}
}

func TestParse_AllOperators(t *testing.T) {
	for _, op := range []string{"=", "!=", "<", ">", "<=", ">=", "LIKE", "ILIKE"} {
		got, appErr := filter.Parse("name:"+op+":x", testWhitelist)
		require.Nil(t, appErr, op)
		assert.Equal(t, []string{op}, got["t.name"].Operators)
	}

	got, appErr := filter.Parse("name:IS NOT:true", testWhitelist)
	require.Nil(t, appErr)
	assert.Equal(t, []interface{}{true}, got["t.name"].Values)
}

func TestCanonical_Idempotent(t *testing.T) {
	inputs := []string{
		"age:>:18,city:=:Reno",
		"city:ilike:%re%,age:>=:18,age:<:65",
		"name:IS:null,name:is not:FALSE",
		"  age : = : 7 ",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first, appErr := filter.Parse(input, testWhitelist)
			require.Nil(t, appErr)

			text := filter.Canonical(first, testWhitelist)
			second, appErr := filter.Parse(text, testWhitelist)
			require.Nil(t, appErr)

			assert.Equal(t, first, second)
			assert.Equal(t, text, filter.Canonical(second, testWhitelist))
		})
	}
}

func TestCanonical_Format(t *testing.T) {
	descriptor := filter.Descriptor{
		"t.city": {Operators: []string{"="}, Values: []interface{}{"Reno"}},
		"t.age":  {Operators: []string{">", "<"}, Values: []interface{}{"18", "65"}},
		"t.name": {Operators: []string{"IS"}, Values: []interface{}{nil}},
	}

	assert.Equal(t, "age:>:18,age:<:65,city:=:Reno,name:IS:null", filter.Canonical(descriptor, testWhitelist))
}

func TestDescriptor_JSONRoundTrip(t *testing.T) {
	// the session stores descriptors as JSON
	original, appErr := filter.Parse("age:>:18,name:IS:null,name:IS NOT:true", testWhitelist)
	require.Nil(t, appErr)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored filter.Descriptor
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, original, restored)
}

func TestNewWhitelist(t *testing.T) {
	assert.Equal(t, filter.Whitelist{"role": "r.role", "level": "r.level"}, filter.NewWhitelist("r", "role", "level"))
	assert.Equal(t, filter.Whitelist{"title": "Title"}, filter.NewWhitelist("", "Title"))
}
