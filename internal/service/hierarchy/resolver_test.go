package hierarchy

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtreeOf_TwoLevels(t *testing.T) {
	ctx := context.Background()
	repo := orgChart()
	r := NewTreeResolver(repo)

	ids, err := r.SubtreeOf(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, ids, 5)
	assert.ElementsMatch(t, []string{"m1", "d1", "d2", "i1", "i2"}, ids)
	assert.Equal(t, "m1", ids[0])

	// Two populated layers plus the empty one that ends the walk.
	assert.Equal(t, 3, repo.layerHits)
}

func TestSubtreeOf_SupersetOfDirectReport(t *testing.T) {
	ctx := context.Background()
	r := NewTreeResolver(orgChart())

	root, err := r.SubtreeOf(ctx, "m1")
	require.NoError(t, err)
	for _, direct := range []string{"d1", "d2"} {
		sub, err := r.SubtreeOf(ctx, direct)
		require.NoError(t, err)
		assert.Contains(t, sub, direct)
		assert.Subset(t, root, sub)
	}
}

func TestSubtreeOf_LeafAndUnknown(t *testing.T) {
	ctx := context.Background()
	r := NewTreeResolver(orgChart())

	ids, err := r.SubtreeOf(ctx, "u9")
	require.NoError(t, err)
	assert.Equal(t, []string{"u9"}, ids)

	ids, err = r.SubtreeOf(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = r.SubtreeOf(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSubtreeOf_DeepChainHasNoDepthLimit(t *testing.T) {
	var users []user.User
	users = append(users, user.User{ID: "n0"})
	for i := 1; i < 200; i++ {
		prev := users[i-1].ID
		users = append(users, user.User{ID: idFor(i), ReportsTo: &prev})
	}
	r := NewTreeResolver(newFakeUserRepo(users...))

	ids, err := r.SubtreeOf(context.Background(), "n0")
	require.NoError(t, err)
	assert.Len(t, ids, 200)
}

func TestSubtreeOf_CycleIsDataIntegrityError(t *testing.T) {
	repo := newFakeUserRepo(
		user.User{ID: "a", ReportsTo: reportsTo("c")},
		user.User{ID: "b", ReportsTo: reportsTo("a")},
		user.User{ID: "c", ReportsTo: reportsTo("b")},
	)
	r := NewTreeResolver(repo)

	_, err := r.SubtreeOf(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, hierarchy.ErrCycleDetected)
	assert.Equal(t, apperror.KindDataIntegrity, apperror.KindOf(err))
}

func TestSubtreeOf_SelfLoop(t *testing.T) {
	r := NewTreeResolver(newFakeUserRepo(user.User{ID: "a", ReportsTo: reportsTo("a")}))

	_, err := r.SubtreeOf(context.Background(), "a")
	assert.ErrorIs(t, err, hierarchy.ErrCycleDetected)
}

func idFor(i int) string {
	return "n" + string(rune('a'+i%26)) + string(rune('a'+i/26))
}

func TestDirectReports(t *testing.T) {
	ctx := context.Background()
	r := NewTreeResolver(orgChart())

	ids, err := r.DirectReports(ctx, "m1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d1", "d2"}, ids)

	ids, err = r.DirectReports(ctx, "u9")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
