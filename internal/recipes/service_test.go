package recipes

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows            map[uuid.UUID]*RecipeRow
	ratings         []*Rating
	statsRefreshed  []uuid.UUID
	similarResponse []*RecipeRow
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*RecipeRow)}
}

func (f *fakeRepo) Create(_ context.Context, row *RecipeRow) error {
	f.rows[row.ID] = row
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*RecipeRow, error) {
	return f.rows[id], nil
}

func (f *fakeRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, _ ListRecipesParams) ([]*RecipeRow, int64, error) {
	var out []*RecipeRow
	for _, row := range f.rows {
		if row.OwnerUserID == ownerID {
			out = append(out, row)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) Update(_ context.Context, row *RecipeRow) error {
	f.rows[row.ID] = row
	return nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) SearchSimilar(_ context.Context, _ uuid.UUID, _ []float32, _ uuid.UUID, _ int) ([]*RecipeRow, error) {
	return f.similarResponse, nil
}

func (f *fakeRepo) UpsertRating(_ context.Context, rating *Rating) error {
	f.ratings = append(f.ratings, rating)
	return nil
}

func (f *fakeRepo) RefreshRatingStats(_ context.Context, recipeID uuid.UUID) error {
	f.statsRefreshed = append(f.statsRefreshed, recipeID)
	return nil
}

type fakeEmbedder struct {
	vec  []float32
	err  error
	seen []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.seen = append(f.seen, text)
	return f.vec, f.err
}

func TestService_CreateRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	emb := &fakeEmbedder{vec: []float32{0.1, 0.2}}
	svc := NewService(repo, emb)
	ownerID := uuid.New()

	created, err := svc.Create(context.Background(), ownerID, &CreateRecipeRequest{
		Title:        "Pancakes",
		Ingredients:  []Ingredient{{Name: "Flour", Quantity: 200, Unit: "g"}, {Name: "Milk", Quantity: 300, Unit: "ml"}},
		Instructions: []string{"mix", "fry"},
		Tags:         []string{"breakfast"},
		Servings:     4,
	})
	require.NoError(t, err)

	got, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pancakes", got.Title)
	assert.Equal(t, ownerID, got.OwnerUserID)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "Flour", got.Ingredients[0].Name)
	assert.Equal(t, []string{"mix", "fry"}, got.Instructions)

	// Embedding text carries title and ingredient names.
	require.Len(t, emb.seen, 1)
	assert.Contains(t, emb.seen[0], "Pancakes")
	assert.Contains(t, emb.seen[0], "Flour, Milk")
	assert.Equal(t, []float32{0.1, 0.2}, repo.rows[created.ID].Embedding)
}

func TestService_CreateSurvivesEmbedderFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmbedder{err: errors.New("api down")})

	created, err := svc.Create(context.Background(), uuid.New(), &CreateRecipeRequest{
		Title:        "Toast",
		Ingredients:  []Ingredient{{Name: "Bread"}},
		Instructions: []string{"toast"},
	})
	require.NoError(t, err)
	assert.Empty(t, repo.rows[created.ID].Embedding)
}

func TestService_UpdateAppliesPartialChanges(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ownerID := uuid.New()

	created, err := svc.Create(context.Background(), ownerID, &CreateRecipeRequest{
		Title:        "Soup",
		Description:  "warm",
		Ingredients:  []Ingredient{{Name: "Carrot"}},
		Instructions: []string{"boil"},
	})
	require.NoError(t, err)

	newTitle := "Carrot Soup"
	updated, err := svc.Update(context.Background(), created, &UpdateRecipeRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Carrot Soup", updated.Title)
	assert.Equal(t, "warm", updated.Description)
}

func TestService_RateRefreshesStats(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	recipeID := uuid.New()
	userID := uuid.New()

	rating, err := svc.Rate(context.Background(), recipeID, userID, &RateRecipeRequest{Score: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, 5, rating.Score)
	require.Len(t, repo.ratings, 1)
	assert.Equal(t, []uuid.UUID{recipeID}, repo.statsRefreshed)
}

func TestService_FindSimilarWithoutEmbedder(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	got, err := svc.FindSimilar(context.Background(), &Recipe{ID: uuid.New()}, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}
