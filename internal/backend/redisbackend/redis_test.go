package redisbackend

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/model"
)

// newTestBackend connects to the server named by DASHFLOW_TEST_REDIS_ADDR and
// isolates the test under a unique prefix.
func newTestBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	addr := os.Getenv("DASHFLOW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DASHFLOW_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, addr)
	require.NoError(t, err)

	prefix := "dashflow-test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = client.Close()
	})
	return New(client, append([]Option{WithPrefix(prefix)}, opts...)...)
}

func TestConnect_Validation(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyConnectionURL)

	_, err = Connect(context.Background(), "redis://bad host:port/x")
	assert.ErrorIs(t, err, ErrParseConnection)
}

func TestBackend_CreateGetUpdateDelete(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, b.Authenticate(ctx, false))

	def := model.DashboardDefinition{
		Title: "Redis",
		Layout: &model.Layout{Sections: []*model.Section{{Items: []*model.Item{
			{Widget: &model.Widget{ObjectIdentity: model.NewTemporaryIdentity(), Type: model.WidgetKPI}},
		}}}},
		FilterContext: model.FilterContextDefinition{Filters: []model.Filter{{Type: model.FilterDate, Granularity: "year"}}},
	}

	d, err := b.CreateDashboard(ctx, def)
	require.NoError(t, err)
	assert.False(t, model.IsTemporaryIdentity(d.Layout.Widgets()[0].ObjectIdentity))

	got, err := b.GetDashboard(ctx, model.URIRef(d.URI))
	require.NoError(t, err)
	assert.Equal(t, "Redis", got.Title)
	assert.Equal(t, "year", got.FilterContext.Filters[0].Granularity)

	def.Title = "Renamed"
	def.FilterContext = model.FilterContextDefinition{Ref: d.FilterContext.Ref}
	u, err := b.UpdateDashboard(ctx, d.Ref, def)
	require.NoError(t, err)
	assert.Equal(t, d.Ref, u.Ref)
	assert.Equal(t, "Renamed", u.Title)

	require.NoError(t, b.DeleteDashboard(ctx, d.Ref))
	_, err = b.GetDashboard(ctx, d.Ref)
	assert.True(t, backend.IsNotFound(err))
}

func TestBackend_InsightsAndSeed(t *testing.T) {
	b := newTestBackend(t, WithURIRefs())
	ctx := context.Background()

	ins, err := b.SaveInsight(ctx, &model.Insight{Title: "Table"})
	require.NoError(t, err)
	assert.Equal(t, model.RefURI, ins.Ref.Kind)

	got, err := b.GetInsight(ctx, model.IdentifierRef(ins.Identifier))
	require.NoError(t, err)
	assert.Equal(t, "Table", got.Title)

	require.NoError(t, b.Seed(ctx, []*model.Dashboard{{
		ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("seeded"), Identifier: "seeded"},
		Title:          "Seeded",
		FilterContext:  &model.FilterContext{},
	}}, nil))
	d, err := b.GetDashboard(ctx, model.IdentifierRef("seeded"))
	require.NoError(t, err)
	assert.NotNil(t, d.FilterContext)
}
