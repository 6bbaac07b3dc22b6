package config

import "os"

type Config struct {
	ServerAddr    string
	PostgresConn  string
	JWTSecret     string
	MigrationsDir string
}

func Load() Config {
	return Config{
		ServerAddr:    get("SERVER_ADDRESS", "0.0.0.0:8080"),
		PostgresConn:  must("POSTGRES_CONN"),
		JWTSecret:     must("JWT_SECRET"),
		MigrationsDir: get("MIGRATIONS_DIR", "./migrations"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
