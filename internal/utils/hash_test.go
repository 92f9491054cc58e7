package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantmind-br/wikiport/internal/utils"
)

func TestHashContent_Deterministic(t *testing.T) {
	a := utils.HashContent("hello world")
	b := utils.HashContent("hello world")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "hex-encoded SHA-256")
}

func TestHashContent_DiffersOnChange(t *testing.T) {
	assert.NotEqual(t, utils.HashContent("a"), utils.HashContent("b"))
}

func TestHashContent_KnownVector(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		utils.HashContent(""))
}

func TestHashDocument_TitleChangesHash(t *testing.T) {
	assert.NotEqual(t,
		utils.HashDocument("Old", "body"),
		utils.HashDocument("New", "body"))
}

func TestHashDocument_SeparatesTitleFromBody(t *testing.T) {
	assert.NotEqual(t,
		utils.HashDocument("ab", "c"),
		utils.HashDocument("a", "bc"))
}
