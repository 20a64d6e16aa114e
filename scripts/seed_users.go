package main

import (
	"context"
	"errors"
	"log"
	"os"

	server "github.com/abisalde/storefront-auth/cmd"
	"github.com/abisalde/storefront-auth/internal/auth/repository"
	"github.com/abisalde/storefront-auth/internal/configs"
	"github.com/abisalde/storefront-auth/internal/database"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/abisalde/storefront-auth/pkg/password"
)

type MockUser struct {
	Name     string
	Email    string
	Verified bool
	Status   model.UserStatus
	Cart     model.Cart
}

var mockUsers = []MockUser{
	{Name: "John Doe", Email: "john.doe@example.com", Verified: true, Status: model.UserStatusActive,
		Cart: model.Cart{"prod_1001": {"M": 2}}},
	{Name: "Jane Smith", Email: "jane.smith@example.com", Verified: true, Status: model.UserStatusActive},
	{Name: "Bob Johnson", Email: "bob.johnson@example.com", Verified: false, Status: model.UserStatusInactive},
	{Name: "Alice Williams", Email: "alice.williams@example.com", Verified: true, Status: model.UserStatusActive,
		Cart: model.Cart{"prod_1002": {"S": 1, "L": 1}}},
	{Name: "Charlie Brown", Email: "charlie.brown@example.com", Verified: true, Status: model.UserStatusSuspended},
	{Name: "Diana Jones", Email: "diana.jones@example.com", Verified: true, Status: model.UserStatusActive},
	{Name: "Edward Davis", Email: "edward.davis@example.com", Verified: false, Status: model.UserStatusInactive},
	{Name: "Fiona Miller", Email: "fiona.miller@example.com", Verified: true, Status: model.UserStatusActive},
}

func main() {
	ctx := context.Background()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	cfg, err := configs.Load(env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close(ctx)

	repo, err := server.SetupUserRepository(ctx, db)
	if err != nil {
		log.Fatalf("Failed to open user repository: %v", err)
	}

	defaultPassword := "Password123!"
	hashedPassword, err := password.NewHasher(cfg.Auth.BcryptCost).Hash(defaultPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	log.Println("🌱 Starting to seed users...")

	successCount := 0
	for _, mockUser := range mockUsers {
		created, err := repo.Create(ctx, model.NewUser{
			Name:         mockUser.Name,
			Email:        repository.NormalizeEmail(mockUser.Email),
			PasswordHash: hashedPassword,
		})
		if errors.Is(err, repository.ErrEmailExists) {
			log.Printf("⚠️  %s already exists, skipping", mockUser.Email)
			continue
		}
		if err != nil {
			log.Printf("❌ Failed to create user %s: %v", mockUser.Email, err)
			continue
		}

		if err := seedState(ctx, repo, created.ID, mockUser); err != nil {
			log.Printf("❌ Failed to finish user %s: %v", mockUser.Email, err)
			continue
		}

		successCount++
		log.Printf("✅ Created user %d/%d: %s (%s)", successCount, len(mockUsers), created.Email, mockUser.Status)
	}

	log.Printf("🎉 Seed completed! Successfully created %d/%d users", successCount, len(mockUsers))
	log.Printf("📝 Default password: %s", defaultPassword)
}

func seedState(ctx context.Context, repo repository.UserRepository, id string, u MockUser) error {
	if u.Verified {
		if err := repo.MarkVerified(ctx, id); err != nil {
			return err
		}
	}
	if u.Status != model.UserStatusActive {
		if err := repo.UpdateStatus(ctx, id, u.Status); err != nil {
			return err
		}
	}
	if len(u.Cart) > 0 {
		return repo.UpdateCart(ctx, id, u.Cart)
	}
	return nil
}
