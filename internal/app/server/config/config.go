package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultPageSize = 100
)

type Config struct {
	Env    string
	DB     db
	Server server
	Logger logger
	CRM    crm
	Vault  vault
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type crm struct {
	BaseURL  string `env:"CRM_BASE_URL"`
	PageSize int    `env:"CRM_PAGE_SIZE"`
}

type vault struct {
	MasterKey        string `env:"MASTER_KEY"`
	MasterPassphrase string `env:"MASTER_PASSPHRASE"`
}

func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()

	config := Config{
		Env: viper.GetString("app_env"),
		DB: db{
			DatabaseURI: viper.GetString("database_uri"),
			Migrations:  viper.GetString("migrations_path"),
		},
		Server: server{RunAddress: viper.GetString("run_address")},
		Logger: logger{LogLevel: viper.GetString("log_level")},
		CRM: crm{
			BaseURL:  viper.GetString("crm_base_url"),
			PageSize: viper.GetInt("crm_page_size"),
		},
		Vault: vault{
			MasterKey:        viper.GetString("master_key"),
			MasterPassphrase: viper.GetString("master_passphrase"),
		},
	}
	if config.CRM.PageSize <= 0 {
		config.CRM.PageSize = defaultPageSize
	}
	if config.Server.RunAddress == "" {
		config.Server.RunAddress = ":8080"
	}

	return &config
}
