package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_IsPure(t *testing.T) {
	in := Input{
		Path:       "src/hello.go",
		ChangeType: Modified,
		DiffText:   "+func greet() {}\n",
		LinesAdded: 6,
	}
	first := Compute(in)
	second := Compute(in)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Reasons, second.Reasons)
}

func TestCompute_ClampsToUnitInterval(t *testing.T) {
	in := Input{
		Path:         "src/core/engine.go",
		ChangeType:   Added,
		DiffText:     "+func a(){}\n+type b struct{}\n+export c\n+if err != nil {}\n+go func(){}\n",
		LinesAdded:   50,
		LinesRemoved: 0,
	}
	score := Compute(in)
	require.LessOrEqual(t, score.Value, 1.0)
	require.GreaterOrEqual(t, score.Value, 0.0)
}

func TestCompute_LockfilePenalized(t *testing.T) {
	score := Compute(Input{Path: "Cargo.lock", ChangeType: Modified, LinesAdded: 200})
	assert.Less(t, score.Value, 0.2)
	assert.Contains(t, score.Reasons, "generated_or_lockfile")
}

func TestClassifySize(t *testing.T) {
	assert.Equal(t, Small, ClassifySize(2, 40))
	assert.Equal(t, Medium, ClassifySize(5, 180))
	assert.Equal(t, Large, ClassifySize(12, 600))
	assert.Equal(t, VeryLarge, ClassifySize(24, 2100))
	assert.Equal(t, VeryLarge, ClassifySize(21, 10))
}
