package commands

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"hireline/internal/auth"
	"hireline/internal/models"
	"hireline/internal/storage"
)

type seedUser struct {
	auth.RegisterRequest
	hasPaid bool
	profile *models.FreelancerProfile
}

var demoUsers = []seedUser{
	{
		RegisterRequest: auth.RegisterRequest{
			Email:     "hunter@example.com",
			Password:  "hunter-demo-1",
			FirstName: "Clara",
			LastName:  "Oswald",
			UserType:  models.UserTypeClientHunter,
		},
		hasPaid: true,
	},
	{
		RegisterRequest: auth.RegisterRequest{
			Email:     "ada@example.com",
			Password:  "freelancer-demo-1",
			FirstName: "Ada",
			LastName:  "Novak",
			UserType:  models.UserTypeFreelancer,
		},
		profile: &models.FreelancerProfile{
			Title:             "Backend engineer",
			Bio:               "Ten years of Go and distributed systems. I ship **boring, reliable** services.",
			HourlyRate:        95,
			DailyRate:         700,
			YearsOfExperience: 10,
			Skills:            []string{"Go", "PostgreSQL", "Kubernetes"},
			Technologies:      []string{"gRPC", "Kafka", "Terraform"},
			IsAvailable:       true,
			Timezone:          "Europe/Berlin",
		},
	},
	{
		RegisterRequest: auth.RegisterRequest{
			Email:     "marco@example.com",
			Password:  "freelancer-demo-2",
			FirstName: "Marco",
			LastName:  "Silva",
			UserType:  models.UserTypeFreelancer,
		},
		profile: &models.FreelancerProfile{
			Title:             "Full-stack developer",
			Bio:               "React frontends with Python or Node backends, from prototype to production.",
			HourlyRate:        70,
			DailyRate:         520,
			YearsOfExperience: 6,
			Skills:            []string{"TypeScript", "React", "Node.js", "Python"},
			Technologies:      []string{"Next.js", "FastAPI", "AWS"},
			IsAvailable:       true,
			Timezone:          "America/Sao_Paulo",
		},
	},
	{
		RegisterRequest: auth.RegisterRequest{
			Email:     "yuki@example.com",
			Password:  "freelancer-demo-3",
			FirstName: "Yuki",
			LastName:  "Tanaka",
			UserType:  models.UserTypeFreelancer,
		},
		profile: &models.FreelancerProfile{
			Title:             "Mobile developer",
			Bio:               "Native iOS and Android, plus Flutter when it fits.",
			HourlyRate:        80,
			YearsOfExperience: 8,
			Skills:            []string{"Swift", "Kotlin", "Flutter"},
			Technologies:      []string{"Firebase", "GraphQL"},
			IsAvailable:       false,
			Timezone:          "Asia/Tokyo",
		},
	},
}

// Seed loads demo accounts and freelancer profiles into an empty database.
// A database that already has users is left untouched.
func Seed(authService *auth.AuthService, store *storage.BboltStorage) error {
	if len(authService.GetUsers()) > 0 {
		slog.Info("database already has users, skipping seed")
		return nil
	}

	for _, su := range demoUsers {
		user, err := authService.Register(su.RegisterRequest)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.Email, err)
		}
		if su.hasPaid {
			if err := authService.SetHasPaid(user.ID); err != nil {
				return fmt.Errorf("failed to mark %s paid: %w", su.Email, err)
			}
		}
		if su.profile != nil {
			profile := *su.profile
			profile.ID = uuid.NewString()
			profile.UserID = user.ID
			if err := store.UpsertFreelancer(profile); err != nil {
				return fmt.Errorf("failed to seed profile for %s: %w", su.Email, err)
			}
		}
		slog.Info("seeded user", "email", su.Email, "type", su.UserType)
	}
	return nil
}
