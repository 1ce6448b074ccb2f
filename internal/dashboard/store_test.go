package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

func loadedStore(t *testing.T, api *fakeAPI) *Store {
	t.Helper()
	s := NewStore(api, discardLogger())
	t.Cleanup(s.Close)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestStore_LoadDerivesWithFilters(t *testing.T) {
	api := newFakeAPI(unit(3, "А3", "Done"), unit(2, "А2", "Jira ticket"), unit(1, "А1", "Done"))
	s := NewStore(api, discardLogger())
	defer s.Close()

	// фильтр до загрузки применяется к загруженным данным
	s.SetFilter(model.FieldStatus, "Done")
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, []int64{3, 1}, ids(s.Dashboard().Result))
	assert.Len(t, s.All(), 3)
	assert.False(t, s.LoadedAt().IsZero())
}

func TestStore_LoadError(t *testing.T) {
	api := newFakeAPI()
	api.listErr = errors.New("connection refused")
	s := NewStore(api, discardLogger())
	defer s.Close()

	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStore_FilterThenClearRestoresOrder(t *testing.T) {
	api := newFakeAPI(unit(3, "В3", "Done"), unit(2, "А2", "Jira ticket"), unit(1, "Б1", "Done"))
	s := loadedStore(t, api)

	s.Sort(model.FieldMilUnit)
	before := ids(s.Dashboard().Result)
	require.Equal(t, []int64{2, 1, 3}, before)

	s.SetFilter(model.FieldStatus, "Jira")
	assert.Equal(t, []int64{2}, ids(s.Dashboard().Result))

	s.ClearFilters()
	view := s.Dashboard()
	assert.Equal(t, before, ids(view.Result))
	assert.Empty(t, view.Filters)
}

func TestStore_SetFilterEmptyRemoves(t *testing.T) {
	s := loadedStore(t, newFakeAPI(unit(2, "А2", "Done"), unit(1, "А1", "Rejected")))

	s.SetFilter(model.FieldStatus, "Rejected")
	assert.Equal(t, map[string]string{"status": "Rejected"}, s.Dashboard().Filters)

	s.SetFilter(model.FieldStatus, "")
	view := s.Dashboard()
	assert.Empty(t, view.Filters)
	assert.Equal(t, []int64{2, 1}, ids(view.Result))
}

func TestStore_SortToggleAndReplace(t *testing.T) {
	a := unit(1, "Б", "Done")
	a.Email = model.StringPtr("z@x")
	b := unit(2, "А", "Done")
	b.Email = model.StringPtr("a@x")
	c := unit(3, "А", "Done")
	c.Email = model.StringPtr("m@x")
	s := loadedStore(t, newFakeAPI(c, b, a))

	s.Sort(model.FieldMilUnit)
	view := s.Dashboard()
	assert.Equal(t, model.FieldMilUnit, view.SortField)
	assert.Equal(t, Asc, view.SortDir)
	assert.Equal(t, []int64{3, 2, 1}, ids(view.Result))

	s.Sort(model.FieldMilUnit)
	view = s.Dashboard()
	assert.Equal(t, Desc, view.SortDir)
	assert.Equal(t, []int64{1, 3, 2}, ids(view.Result))

	// новое поле полностью заменяет предыдущий порядок
	s.Sort(model.FieldEmail)
	view = s.Dashboard()
	assert.Equal(t, Asc, view.SortDir)
	assert.Equal(t, []int64{2, 3, 1}, ids(view.Result))
}

func TestStore_MutationReflection(t *testing.T) {
	api := newFakeAPI(unit(2, "А2", "Done"), unit(1, "А1", "Jira ticket"))
	s := loadedStore(t, api)
	ctx := context.Background()

	created, err := s.Create(ctx, model.UnitFields{MilUnit: "A123", Status: "Created accounts"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
	assert.Equal(t, []int64{3, 2, 1}, ids(s.All()))
	assert.Equal(t, []int64{3, 2, 1}, ids(s.Dashboard().Result))

	_, err = s.Open(ctx, 1)
	require.NoError(t, err)

	updated, err := s.Update(ctx, 1, model.UnitFields{MilUnit: "А1", Status: "Done"})
	require.NoError(t, err)
	assert.Equal(t, "Done", updated.Status)
	all := s.All()
	assert.Equal(t, []int64{3, 2, 1}, ids(all))
	assert.Equal(t, "Done", all[2].Status)
	assert.Equal(t, "Done", s.Current().Status)

	msg, err := s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Unit deleted successfully", msg)
	assert.Equal(t, []int64{3, 2}, ids(s.All()))
	assert.Equal(t, []int64{3, 2}, ids(s.Dashboard().Result))
	assert.Nil(t, s.Current())
}

func TestStore_SortKeepsReflectedMutations(t *testing.T) {
	api := newFakeAPI(unit(2, "А2", "Done"), unit(1, "А1", "Done"))
	s := loadedStore(t, api)
	ctx := context.Background()

	s.SetFilter(model.FieldStatus, "Done")
	_, err := s.Create(ctx, model.UnitFields{MilUnit: "А3", Status: "Jira ticket"})
	require.NoError(t, err)
	require.Equal(t, []int64{3, 2, 1}, ids(s.Dashboard().Result))

	// сортировка работает по текущему результату, а не по полному набору
	s.Sort(model.FieldMilUnit)
	assert.Equal(t, []int64{1, 2, 3}, ids(s.Dashboard().Result))

	_, err = s.Update(ctx, 1, model.UnitFields{MilUnit: "А9", Status: "Rejected"})
	require.NoError(t, err)
	s.Sort(model.FieldMilUnit)
	assert.Equal(t, []int64{1, 3, 2}, ids(s.Dashboard().Result))

	// смена фильтра пересчитывает результат из полного набора
	s.SetFilter(model.FieldStatus, "Done")
	assert.Equal(t, []int64{2}, ids(s.Dashboard().Result))
}

func TestStore_UpdateErrorLeavesState(t *testing.T) {
	s := loadedStore(t, newFakeAPI(unit(1, "А1", "Done")))

	_, err := s.Update(context.Background(), 42, model.UnitFields{MilUnit: "X"})
	require.ErrorIs(t, err, errNotFound)
	assert.Equal(t, "А1", s.All()[0].MilUnit)
}

func TestStore_SnapshotsAreCopies(t *testing.T) {
	s := loadedStore(t, newFakeAPI(unit(1, "А1", "Done")))

	view := s.Dashboard()
	view.Result[0].MilUnit = "changed"
	view.Filters["status"] = "x"

	fresh := s.Dashboard()
	assert.Equal(t, "А1", fresh.Result[0].MilUnit)
	assert.Empty(t, fresh.Filters)
}
