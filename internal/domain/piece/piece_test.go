package piece

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromCode(t *testing.T) {
	for code, want := range []Kind{KindBody, KindHead, KindRightArm, KindLeftArm, KindLegs} {
		got, err := KindFromCode(code)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := KindFromCode(5)
	assert.Error(t, err)
	_, err = KindFromCode(-1)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"HEAD":   KindHead,
		"r_arm":  KindRightArm,
		" legs ": KindLegs,
		"3":      KindLeftArm,
		"0":      KindBody,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("tail")
	assert.Error(t, err)
	_, err = ParseKind("9")
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "BODY", KindBody.String())
	assert.Equal(t, "L_ARM", KindLeftArm.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestDefinitionHasTag(t *testing.T) {
	d := &Definition{ID: "robot_head", Kind: KindHead, Tags: []string{"Robot", "metal"}}

	assert.True(t, d.HasTag("robot"))
	assert.True(t, d.HasTag("METAL"))
	assert.False(t, d.HasTag("pirate"))
}
