package main

import (
	"os"
	"strings"

	"github.com/nimasrn/sms-portal/internal/config"
	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/nimasrn/sms-portal/pkg/pg"
)

// usage: cli [up|status] --env=.env --dir=./migrations
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	pgConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	dir := getMigrationPath()
	switch command() {
	case "status":
		err = pg.Status(pgConf, dir)
	case "up":
		err = pg.Migrate(pgConf, dir)
	default:
		logger.Error("unknown command, expected up or status", "command", command())
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migration: command failed", "command", command(), "error", err)
		os.Exit(1)
	}
}

func command() string {
	for _, v := range os.Args[1:] {
		if !strings.HasPrefix(v, "--") {
			return v
		}
	}
	return "up"
}

func flagValue(name string) string {
	for _, v := range os.Args[1:] {
		if strings.HasPrefix(v, "--"+name+"=") {
			return strings.TrimPrefix(v, "--"+name+"=")
		}
	}
	return ""
}

func getEnvPath() string {
	p := flagValue("env")
	if p == "" {
		p = ".env"
	}
	if _, err := os.Stat(p); err != nil {
		logger.Warn("env file not found, using environment only", "path", p)
		return ""
	}
	return p
}

func getMigrationPath() string {
	if p := flagValue("dir"); p != "" {
		return p
	}
	return "./migrations"
}
