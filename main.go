package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"air_quality_api/airquality"
	"air_quality_api/api"
	"air_quality_api/auth"
	"air_quality_api/config"
	"air_quality_api/database"
	"air_quality_api/logger"
	"air_quality_api/users"
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	command := os.Args[1]

	// Initialize logging only for commands that need it
	if needsLogging(command) {
		cfg := loadConfig()
		if err := logger.Init(cfg); err != nil {
			log.Fatalf("Failed to initialize logging: %v", err)
		}
		defer func() {
			err := logger.Close()
			if err != nil {
				log.Fatalf("Failed to close logging: %v", err)
			}
		}()
	}

	switch command {
	case "serve":
		serveCommand()
	case "migrate":
		migrateCommand()
	case "connect":
		connectCommand()
	case "gen:sample":
		if len(os.Args) < 3 {
			fmt.Println("Error: output path required")
			fmt.Println("Usage: go run . gen:sample <output_file.csv>")
			return
		}
		generateSampleCommand(os.Args[2])
	case "help":
		showHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showHelp()
	}
}

// needsLogging determines which commands need logging
func needsLogging(command string) bool {
	loggingCommands := map[string]bool{
		"serve":   true,
		"migrate": true,
		"connect": true,
	}
	return loggingCommands[command]
}

func showHelp() {
	fmt.Println("Air Quality API - REST backend for air quality measurements")
	fmt.Println("")
	fmt.Println("Usage: go run . <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  serve                Start the HTTP API server")
	fmt.Println("  migrate              Run database migrations")
	fmt.Println("  connect              Test database connection")
	fmt.Println("  gen:sample <file>    Generate a sample air quality CSV file")
	fmt.Println("  help                 Show this help message")
	fmt.Println("")
	fmt.Println("Configuration:")
	fmt.Println("  Edit config.yaml to configure database, server and auth settings")
	fmt.Println("")
	fmt.Println("CSV File Format:")
	fmt.Println("  Semicolon-separated with comma decimal values")
	fmt.Println("  Required columns: Date;Time;CO(GT);PT08.S1(CO);NMHC(GT);C6H6(GT);")
	fmt.Println("  PT08.S2(NMHC);NOx(GT);PT08.S3(NOx);NO2(GT);PT08.S4(NO2);PT08.S5(O3);T;RH;AH")
	fmt.Println("  Date format: DD/MM/YYYY, time format: HH.MM.SS")
}

func loadConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func connectDatabase() (*config.Config, error) {
	cfg := loadConfig()

	_, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, nil
}

func serveCommand() {
	cfg, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := cfg.ValidateAuth(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}

	jwtManager, err := auth.NewJWTManager(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize JWT manager: %v", err)
	}

	usersService := users.NewService(db, cfg.Auth.BcryptCost)
	authService := auth.NewService(usersService, jwtManager)
	importer := airquality.NewImporter(db)
	queryService := airquality.NewService(db)

	handler := api.NewHandler(usersService, authService, importer, queryService, cfg.Server.UploadDir)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager))

	logger.Printf("Listening on %s\n", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, router.Setup()); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}

func migrateCommand() {
	_, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(database.GetDB()); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}
}

func connectCommand() {
	logger.Println("Testing database connection...")

	cfg, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Connection failed: %v", err)
	}

	logger.Printf("✓ Successfully connected to %s database\n", cfg.Database.Driver)
}
