package di

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParamTag(t *testing.T) {
	cases := []struct {
		tag      string
		name     string
		optional bool
	}{
		{"", "", false},
		{"repo", "repo", false},
		{"repo,?", "repo", true},
		{"repo,optional", "repo", true},
		{",?", "", true},
		{"?", "", true},
		{"optional", "", true},
	}
	for _, c := range cases {
		name, optional := parseParamTag(c.tag)
		assert.Equal(t, c.name, name, c.tag)
		assert.Equal(t, c.optional, optional, c.tag)
	}
}

type planInner struct {
	Dep string `di:"dep"`
}

func (p *planInner) Setup()   {}
func (p *planInner) Prepare() {}

type planMiddle struct {
	*planInner
}

func (p *planMiddle) Setup() {}

type planOuter struct {
	planMiddle
	Other  int `di:",?"`
	hidden int `di:""`
}

func init() {
	DescribeType(reflect.TypeOf(&planInner{}), Method("Setup"), Method("Prepare"))
	DescribeType(reflect.TypeOf(&planMiddle{}), Method("Setup"))
}

func TestPlanMembersWalksEmbeddingChain(t *testing.T) {
	plan := planMembers(reflect.TypeOf(&planOuter{}))

	require.Len(t, plan.fields, 2)
	assert.Equal(t, []int{0, 0}, plan.fields[0].path)
	assert.Equal(t, "dep", plan.fields[0].param.Name)
	assert.Equal(t, "Other", plan.fields[1].param.Name)
	assert.True(t, plan.fields[1].param.Optional)

	require.Len(t, plan.methods, 2)
	assert.Equal(t, "Prepare", plan.methods[0].method.name)
	assert.Equal(t, []int{0, 0}, plan.methods[0].path)
	assert.Equal(t, "Setup", plan.methods[1].method.name)
	assert.Equal(t, []int{0}, plan.methods[1].path)
}

type badCtorTarget struct{}

func TestDescribeRejectsInvalidDeclarations(t *testing.T) {
	target := reflect.TypeOf(&badCtorTarget{})
	cases := map[string]Member{
		"not a function":  Constructor(42),
		"wrong result":    Constructor(func() int { return 0 }),
		"too many tags":   Constructor(func() *badCtorTarget { return nil }, "a"),
		"missing method":  Method("Nope"),
		"variadic static": Static(func(...int) {}),
		"static result":   Static(func() int { return 0 }),
	}
	for name, member := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				rec := recover()
				require.NotNil(t, rec)
				err, ok := rec.(*ConfigError)
				require.True(t, ok)
				assert.ErrorIs(t, err, ErrInvalidDescriptor)
			}()
			DescribeType(target, member)
		})
	}
}
