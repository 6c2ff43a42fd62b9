//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mysticbob/nochickenleftbehind/internal/api"
	"github.com/mysticbob/nochickenleftbehind/internal/assistant"
	"github.com/mysticbob/nochickenleftbehind/internal/audit"
	"github.com/mysticbob/nochickenleftbehind/internal/auth"
	"github.com/mysticbob/nochickenleftbehind/internal/billing"
	"github.com/mysticbob/nochickenleftbehind/internal/config"
	"github.com/mysticbob/nochickenleftbehind/internal/conversation"
	"github.com/mysticbob/nochickenleftbehind/internal/grocery"
	"github.com/mysticbob/nochickenleftbehind/internal/mealplan"
	inats "github.com/mysticbob/nochickenleftbehind/internal/nats"
	"github.com/mysticbob/nochickenleftbehind/internal/pantry"
	"github.com/mysticbob/nochickenleftbehind/internal/recipes"
	"github.com/mysticbob/nochickenleftbehind/internal/tools"
	"github.com/mysticbob/nochickenleftbehind/internal/users"
)

type TestEnv struct {
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	Server      *httptest.Server
	AuthSvc     *auth.Service
	Store       *conversation.Store
	Registry    *tools.Registry
}

var testEnv *TestEnv

func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:0.8.1-pg16",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "nclb_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	pgHost, _ := pgContainer.Host(ctx)
	pgPort, _ := pgContainer.MappedPort(ctx, "5432")

	// Start Redis container
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting redis container: %v", err)
	}
	t.Cleanup(func() { redisContainer.Terminate(ctx) })

	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, "6379")

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/nclb_test?sslmode=disable", pgHost, pgPort.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	// Run migrations
	m, err := migrate.New(
		fmt.Sprintf("file://%s", getMigrationsPath()),
		dsn,
	)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("running migrations: %v", err)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})
	t.Cleanup(func() { redisClient.Close() })

	// Conversation store
	store := conversation.NewStore()

	// Auth and users
	jwtManager := auth.NewJWTManager("test-access-secret-32-chars-long!!", "test-refresh-secret-32-chars-long!!", 15*time.Minute, 7*24*time.Hour)
	authSvc := auth.NewService(jwtManager, redisClient)
	authHandler := auth.NewHandler(authSvc)

	userSvc := users.NewService(users.NewRepository(pool))
	userHandler := users.NewHandler(userSvc, authSvc)

	// Feature services, no embedder: similarity search is exercised elsewhere
	recipeSvc := recipes.NewService(recipes.NewRepository(pool), nil)
	recipeHandler := recipes.NewHandler(recipeSvc)

	pantrySvc := pantry.NewService(pantry.NewRepository(pool))
	pantryHandler := pantry.NewHandler(pantrySvc)

	grocerySvc := grocery.NewService(grocery.NewRepository(pool))
	groceryHandler := grocery.NewHandler(grocerySvc)

	mealplanSvc := mealplan.NewService(mealplan.NewRepository(pool))
	mealplanHandler := mealplan.NewHandler(mealplanSvc)

	billingSvc := billing.NewService(
		billing.NewRepository(pool),
		billing.NewBurstLimiter(redisClient),
		config.BillingConfig{FreeDailyCalls: 20, PremiumDailyCalls: 500, MaxCallsPerMinute: 10},
	)
	billingHandler := billing.NewHandler(billingSvc)

	registry := tools.NewRegistry()
	if err := tools.RegisterDefaults(registry, tools.Deps{
		Pantry:   pantrySvc,
		Recipes:  recipeSvc,
		Grocery:  grocerySvc,
		MealPlan: mealplanSvc,
	}); err != nil {
		t.Fatalf("registering tools: %v", err)
	}
	toolsHandler := tools.NewHandler(registry)

	// NATS is not part of this environment; chat publishing is covered by
	// the nats integration test.
	var publisher *inats.Publisher
	assistantHandler := assistant.NewHandler(store, publisher)

	auditHandler := audit.NewHandler(audit.NewRepository(pool))

	router := api.NewRouter(pool, nil, api.RouterConfig{}, api.HandlerSet{
		Register:      userHandler.Register,
		Login:         userHandler.Login,
		Refresh:       authHandler.Refresh,
		Logout:        authHandler.Logout,
		GetProfile:    userHandler.GetProfile,
		UpdateProfile: userHandler.UpdateProfile,

		CreateRecipe:              recipeHandler.Create,
		ListRecipes:               recipeHandler.List,
		GetRecipe:                 recipeHandler.Get,
		UpdateRecipe:              recipeHandler.Update,
		DeleteRecipe:              recipeHandler.Delete,
		SimilarRecipes:            recipeHandler.Similar,
		RateRecipe:                recipeHandler.Rate,
		RecipeOwnershipMiddleware: recipeHandler.OwnershipMiddleware,

		CreatePantryItem:   pantryHandler.Create,
		ListPantry:         pantryHandler.List,
		ListExpiringPantry: pantryHandler.ListExpiring,
		UpdatePantryItem:   pantryHandler.Update,
		DeletePantryItem:   pantryHandler.Delete,

		CreateGroceryList: groceryHandler.CreateList,
		ListGroceryLists:  groceryHandler.Lists,
		GetGroceryList:    groceryHandler.GetList,
		DeleteGroceryList: groceryHandler.DeleteList,
		AddGroceryItem:    groceryHandler.AddItem,
		CheckGroceryItem:  groceryHandler.CheckItem,
		DeleteGroceryItem: groceryHandler.DeleteItem,
		RegenerateGrocery: groceryHandler.Regenerate,

		CreateMealPlan: mealplanHandler.Create,
		ListMealPlans:  mealplanHandler.List,
		GetMealPlan:    mealplanHandler.Get,
		UpdateMealPlan: mealplanHandler.Update,
		DeleteMealPlan: mealplanHandler.Delete,

		Chat:              assistantHandler.Chat,
		Suggestions:       assistantHandler.Suggestions,
		AssistantContext:  assistantHandler.Context,
		SetPreference:     assistantHandler.SetPreference,
		GetAssistantState: assistantHandler.GetState,
		SetAssistantState: assistantHandler.SetState,

		ListTools: toolsHandler.List,
		CallTool:  toolsHandler.Call,

		GetSubscription:    billingHandler.GetUsage,
		ChangeSubscription: billingHandler.ChangePlan,

		ListAuditLogs: auditHandler.List,

		AuthMiddleware: auth.Middleware(authSvc),
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() { server.Close() })

	testEnv = &TestEnv{
		Pool:        pool,
		RedisClient: redisClient,
		Server:      server,
		AuthSvc:     authSvc,
		Store:       store,
		Registry:    registry,
	}

	return testEnv
}

func getMigrationsPath() string {
	paths := []string{
		"../../migrations",
		"../../../migrations",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	log.Fatal("migrations directory not found")
	return ""
}

// Helper functions

func RegisterUser(t *testing.T, env *TestEnv, email, password string) string {
	t.Helper()
	body := map[string]string{"email": email, "password": password}
	resp := DoRequest(t, env, "POST", "/api/v1/auth/register", body, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: status %d", resp.StatusCode)
	}
	result := ParseResponse(t, resp)
	data := result["data"].(map[string]any)
	return data["access_token"].(string)
}

func DoRequest(t *testing.T, env *TestEnv, method, path string, body any, token string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("doing request: %v", err)
	}
	return resp
}

func ParseResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	return result
}
