package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mysticbob/nochickenleftbehind/internal/api"
	"github.com/mysticbob/nochickenleftbehind/internal/assistant"
	"github.com/mysticbob/nochickenleftbehind/internal/audit"
	"github.com/mysticbob/nochickenleftbehind/internal/auth"
	"github.com/mysticbob/nochickenleftbehind/internal/billing"
	"github.com/mysticbob/nochickenleftbehind/internal/config"
	"github.com/mysticbob/nochickenleftbehind/internal/conversation"
	"github.com/mysticbob/nochickenleftbehind/internal/database"
	"github.com/mysticbob/nochickenleftbehind/internal/grocery"
	"github.com/mysticbob/nochickenleftbehind/internal/mealplan"
	"github.com/mysticbob/nochickenleftbehind/internal/middleware"
	inats "github.com/mysticbob/nochickenleftbehind/internal/nats"
	"github.com/mysticbob/nochickenleftbehind/internal/pantry"
	"github.com/mysticbob/nochickenleftbehind/internal/recipes"
	iredis "github.com/mysticbob/nochickenleftbehind/internal/redis"
	"github.com/mysticbob/nochickenleftbehind/internal/server"
	"github.com/mysticbob/nochickenleftbehind/internal/tools"
	"github.com/mysticbob/nochickenleftbehind/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), "migrations"); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS JetStream
	natsClient, err := inats.NewClient(ctx, cfg.NATS)
	if err != nil {
		slog.Error("connecting to nats", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	publisher := inats.NewPublisher(natsClient.JetStream())
	consumerMgr := inats.NewConsumerManager(natsClient.JetStream())

	// Conversation context store
	store := conversation.NewStore(
		conversation.WithSessionTimeout(cfg.Conversation.SessionTimeout),
		conversation.WithEvictionAfter(cfg.Conversation.EvictionAfter),
	)
	store.StartJanitor(ctx, cfg.Conversation.JanitorInterval)

	// Auth
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authSvc := auth.NewService(jwtManager, redisClient)
	authHandler := auth.NewHandler(authSvc)

	// Users
	userSvc := users.NewService(users.NewRepository(pool))
	userHandler := users.NewHandler(userSvc, authSvc)

	// LLM client. Missing key means canned replies and no embeddings.
	var llm *assistant.Client
	var embedder recipes.Embedder
	if cfg.OpenAI.APIKey != "" {
		llm = assistant.NewClient(cfg.OpenAI)
		embedder = llm
	} else {
		slog.Warn("openai api key not set, assistant replies will be canned")
	}

	// Feature services
	recipeSvc := recipes.NewService(recipes.NewRepository(pool), embedder)
	recipeHandler := recipes.NewHandler(recipeSvc)

	pantrySvc := pantry.NewService(pantry.NewRepository(pool))
	pantryHandler := pantry.NewHandler(pantrySvc)

	grocerySvc := grocery.NewService(grocery.NewRepository(pool))
	groceryHandler := grocery.NewHandler(grocerySvc)

	mealplanSvc := mealplan.NewService(mealplan.NewRepository(pool))
	mealplanHandler := mealplan.NewHandler(mealplanSvc)

	// Billing
	billingSvc := billing.NewService(
		billing.NewRepository(pool),
		billing.NewBurstLimiter(redisClient),
		cfg.Billing,
	)
	billingHandler := billing.NewHandler(billingSvc)

	// Tools
	registry := tools.NewRegistry()
	if err := tools.RegisterDefaults(registry, tools.Deps{
		Pantry:   pantrySvc,
		Recipes:  recipeSvc,
		Grocery:  grocerySvc,
		MealPlan: mealplanSvc,
	}); err != nil {
		slog.Error("registering tools", "error", err)
		os.Exit(1)
	}
	toolsHandler := tools.NewHandler(registry)

	// Assistant
	assistantHandler := assistant.NewHandler(store, publisher)

	var completer assistant.Completer
	if llm != nil {
		completer = llm
	}
	worker := assistant.NewWorker(store, registry, billingSvc, completer, publisher, consumerMgr)
	go func() {
		if err := worker.Start(ctx); err != nil {
			slog.Error("assistant worker stopped", "error", err)
		}
	}()

	// Audit
	auditRepo := audit.NewRepository(pool)
	auditHandler := audit.NewHandler(auditRepo)

	auditConsumer := audit.NewConsumer(auditRepo, consumerMgr)
	go func() {
		if err := auditConsumer.Start(ctx); err != nil {
			slog.Error("audit consumer stopped", "error", err)
		}
	}()

	// Router
	authRateLimiter := middleware.NewRateLimiter(redisClient, 10, 60)

	router := api.NewRouter(pool, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRateLimiter:    authRateLimiter.Middleware,
	}, api.HandlerSet{
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

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
